package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// MockPDFGenerator implementación mock de billing.DocumentPDFGenerator.
type MockPDFGenerator struct {
	mock.Mock
}

var _ billing.DocumentPDFGenerator = (*MockPDFGenerator)(nil)

func (m *MockPDFGenerator) GenerateDocumentPDF(ctx context.Context, doc *entity.Document, settings *entity.Settings) ([]byte, error) {
	args := m.Called(ctx, doc, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
