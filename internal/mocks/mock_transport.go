package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
)

// MockTransport implementación mock de apidian.Transport.
type MockTransport struct {
	mock.Mock
}

var _ apidian.Transport = (*MockTransport)(nil)

func (m *MockTransport) Do(ctx context.Context, target apidian.Target, method, path string, body any) (*apidian.Response, error) {
	args := m.Called(ctx, target, method, path, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apidian.Response), args.Error(1)
}
