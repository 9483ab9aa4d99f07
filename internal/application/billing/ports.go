package billing

import (
	"context"
	"time"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
)

// BillingTxRunner ejecuta fn dentro de una unidad de trabajo con los repos de documentos
// y resoluciones. Si fn devuelve error nada de lo escrito queda persistido.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		docs repository.DocumentRepository,
		resolutions repository.ResolutionRepository,
	) error) error
}

// SettingsSource entrega la configuración vigente. Se inyecta al construir los casos de uso.
type SettingsSource interface {
	Current(ctx context.Context) (*entity.Settings, error)
}

// Recorder métricas del ciclo de vida. nopRecorder cuando no se configura.
type Recorder interface {
	IngestOutcome(outcome IngestOutcome)
	DispatchOutcome(kind entity.DocumentKind, status entity.DocumentStatus, elapsed time.Duration)
	RangeExhausted(kind entity.DocumentKind)
}

type nopRecorder struct{}

func (nopRecorder) IngestOutcome(IngestOutcome)                                               {}
func (nopRecorder) DispatchOutcome(entity.DocumentKind, entity.DocumentStatus, time.Duration) {}
func (nopRecorder) RangeExhausted(entity.DocumentKind)                                        {}

// DocumentPDFGenerator representación gráfica de vista previa de un documento.
type DocumentPDFGenerator interface {
	GenerateDocumentPDF(ctx context.Context, doc *entity.Document, settings *entity.Settings) ([]byte, error)
}
