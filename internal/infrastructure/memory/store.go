// Package memory implementa los repositorios en memoria: pruebas y una sola estación sin
// PostgreSQL. Todas las operaciones se serializan con un mutex del Store; una transacción
// lo retiene completo y restaura una copia si la función falla.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
)

type state struct {
	documents   map[int64]*entity.Document
	resolutions map[int64]*entity.Resolution
	customers   map[int64]*entity.Customer
	products    map[int64]*entity.Product
	settings    *entity.Settings
	seq         int64
}

func (st *state) clone() state {
	c := state{
		documents:   make(map[int64]*entity.Document, len(st.documents)),
		resolutions: make(map[int64]*entity.Resolution, len(st.resolutions)),
		customers:   make(map[int64]*entity.Customer, len(st.customers)),
		products:    make(map[int64]*entity.Product, len(st.products)),
		settings:    st.settings.Clone(),
		seq:         st.seq,
	}
	for id, v := range st.documents {
		c.documents[id] = v.Clone()
	}
	for id, v := range st.resolutions {
		c.resolutions[id] = v.Clone()
	}
	for id, v := range st.customers {
		c.customers[id] = v.Clone()
	}
	for id, v := range st.products {
		c.products[id] = v.Clone()
	}
	return c
}

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu  sync.Mutex
	st  state
	now func() time.Time
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		st: state{
			documents:   map[int64]*entity.Document{},
			resolutions: map[int64]*entity.Resolution{},
			customers:   map[int64]*entity.Customer{},
			products:    map[int64]*entity.Product{},
		},
		now: time.Now,
	}
}

// WithClock fija el reloj usado para created_at/updated_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// do ejecuta fn con el mutex tomado salvo dentro de una transacción, que ya lo tiene.
func (s *Store) do(inTx bool, fn func(st *state)) {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn(&s.st)
}

func (st *state) nextID() int64 {
	st.seq++
	return st.seq
}

// Documents repositorio de documentos.
func (s *Store) Documents() *DocumentRepo { return &DocumentRepo{s: s} }

// Resolutions repositorio de resoluciones.
func (s *Store) Resolutions() *ResolutionRepo { return &ResolutionRepo{s: s} }

// Customers repositorio de terceros.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s: s} }

// Products repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Settings repositorio de configuración.
func (s *Store) Settings() *SettingsRepo { return &SettingsRepo{s: s} }

// TxRunner unidad de trabajo sobre el store.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// ── TxRunner ──────────────────────────────────────────────────────────────────

// TxRunner implementa billing.BillingTxRunner con copia y restauración.
type TxRunner struct {
	s *Store
}

var _ billing.BillingTxRunner = (*TxRunner)(nil)

// RunBilling retiene el store durante fn; si fn falla el estado vuelve a la copia previa.
func (t *TxRunner) RunBilling(ctx context.Context, fn func(
	docs repository.DocumentRepository,
	resolutions repository.ResolutionRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	snapshot := t.s.st.clone()
	err := fn(&DocumentRepo{s: t.s, inTx: true}, &ResolutionRepo{s: t.s, inTx: true})
	if err != nil {
		t.s.st = snapshot
	}
	return err
}
