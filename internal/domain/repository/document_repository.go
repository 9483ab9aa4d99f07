package repository

import (
	"context"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para documentos electrónicos.
type DocumentRepository interface {
	// Create asigna ID, CreatedAt y UpdatedAt. Un source_filename repetido devuelve domain.ErrDuplicate.
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id int64) (*entity.Document, error)
	ExistsBySourceFilename(ctx context.Context, filename string) (bool, error)

	// Update reescribe todos los campos mutables (estado, clave fiscal, mensajes, request/response).
	Update(ctx context.Context, doc *entity.Document) error

	// TransitionStatus cambia el estado solo si el actual está en from. Devuelve false si otra
	// estación ganó la carrera (o el estado ya no aplica); es el candado de envío entre procesos.
	TransitionStatus(ctx context.Context, id int64, from []entity.DocumentStatus, to entity.DocumentStatus) (bool, error)

	MarkNullified(ctx context.Context, id int64) error

	// List devuelve la página pedida (más recientes primero) y el total sin paginar.
	List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.Document, int, error)
	ListIDsByStatus(ctx context.Context, status entity.DocumentStatus, limit int) ([]int64, error)
}
