package repository

import (
	"context"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// ResolutionRepository define el puerto de persistencia para resoluciones de numeración.
type ResolutionRepository interface {
	Create(ctx context.Context, res *entity.Resolution) error
	Update(ctx context.Context, res *entity.Resolution) error
	GetByID(ctx context.Context, id int64) (*entity.Resolution, error)
	Delete(ctx context.Context, id int64) error

	// List todas las resoluciones; kind vacío = todos los tipos.
	List(ctx context.Context, kind entity.DocumentKind) ([]*entity.Resolution, error)

	// GetActive resolución activa para el tipo y prefijo (prefijo vacío = cualquiera, la más reciente).
	// Devuelve nil, nil si no hay.
	GetActive(ctx context.Context, kind entity.DocumentKind, prefix string) (*entity.Resolution, error)

	// AllocateNumber incrementa current_number de forma atómica y devuelve el número asignado.
	// Devuelve domain.ErrRangeExhausted si superaría el límite superior del rango.
	AllocateNumber(ctx context.Context, id int64) (int64, error)
}
