package entity

import (
	"fmt"
	"time"
)

// Resolution autorización de numeración de la DIAN para un (tipo de documento, prefijo).
// Invariante: From-1 <= CurrentNumber <= To; CurrentNumber solo crece.
// Una resolución recién creada arranca en From-1 para que el primer número asignado sea From.
type Resolution struct {
	ID             int64
	Kind           DocumentKind
	Prefix         string
	Resolution     string // número de resolución ("18760000001")
	ResolutionDate *time.Time
	TechnicalKey   string
	From           int64
	To             int64
	CurrentNumber  int64 // último número asignado
	DateFrom       *time.Time
	DateTo         *time.Time
	IsActive       bool
	SyncedWithAPI  bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate comprueba el rango y el cursor antes de persistir.
func (r *Resolution) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("tipo de documento inválido: %q", r.Kind)
	}
	if r.From <= 0 || r.To < r.From {
		return fmt.Errorf("rango inválido [%d, %d]", r.From, r.To)
	}
	if r.CurrentNumber < r.From-1 || r.CurrentNumber > r.To {
		return fmt.Errorf("número actual %d fuera del rango [%d, %d]", r.CurrentNumber, r.From, r.To)
	}
	if r.DateFrom != nil && r.DateTo != nil && r.DateTo.Before(*r.DateFrom) {
		return fmt.Errorf("vigencia inválida: %s > %s", r.DateFrom.Format("2006-01-02"), r.DateTo.Format("2006-01-02"))
	}
	return nil
}

// Next siguiente número sin asignarlo; error si se sale del rango.
func (r *Resolution) Next() (int64, error) {
	n := r.CurrentNumber + 1
	if n < r.From {
		n = r.From
	}
	if n > r.To {
		return 0, fmt.Errorf("resolución %s (%s): rango agotado en %d", r.Resolution, r.Prefix, r.To)
	}
	return n, nil
}

// Remaining números disponibles.
func (r *Resolution) Remaining() int64 {
	start := r.CurrentNumber
	if start < r.From-1 {
		start = r.From - 1
	}
	if start >= r.To {
		return 0
	}
	return r.To - start
}

// IsValidOn vigencia por fecha (sin hora); sin fechas se considera vigente.
func (r *Resolution) IsValidOn(t time.Time) bool {
	day := t.Format("2006-01-02")
	if r.DateFrom != nil && day < r.DateFrom.Format("2006-01-02") {
		return false
	}
	if r.DateTo != nil && day > r.DateTo.Format("2006-01-02") {
		return false
	}
	return true
}

// Clone copia profunda.
func (r *Resolution) Clone() *Resolution {
	if r == nil {
		return nil
	}
	c := *r
	c.ResolutionDate = cloneTime(r.ResolutionDate)
	c.DateFrom = cloneTime(r.DateFrom)
	c.DateTo = cloneTime(r.DateTo)
	return &c
}
