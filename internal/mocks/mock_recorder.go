package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// MockRecorder implementación mock de billing.Recorder.
type MockRecorder struct {
	mock.Mock
}

var _ billing.Recorder = (*MockRecorder)(nil)

func (m *MockRecorder) IngestOutcome(outcome billing.IngestOutcome) {
	m.Called(outcome)
}

func (m *MockRecorder) DispatchOutcome(kind entity.DocumentKind, status entity.DocumentStatus, elapsed time.Duration) {
	m.Called(kind, status, elapsed)
}

func (m *MockRecorder) RangeExhausted(kind entity.DocumentKind) {
	m.Called(kind)
}
