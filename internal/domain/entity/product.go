package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto o servicio; precio y tarifa por defecto al armar líneas manuales.
// En documento soporte UnitPrice se interpreta con IVA incluido.
type Product struct {
	ID                       int64
	Code                     string // único
	Name                     string
	Description              string
	UnitPrice                decimal.Decimal
	TaxPercent               decimal.Decimal // 0, 5, 19
	TypeItemIdentificationID int
	UnitMeasureID            int
	IsActive                 bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Clone copia.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
