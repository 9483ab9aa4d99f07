package repository

import (
	"context"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// SettingsRepository define el puerto de persistencia para la configuración única.
type SettingsRepository interface {
	// Get devuelve nil, nil si todavía no existe la fila.
	Get(ctx context.Context) (*entity.Settings, error)
	Save(ctx context.Context, s *entity.Settings) error
}
