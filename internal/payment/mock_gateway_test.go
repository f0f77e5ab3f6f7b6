package payment

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of the Gateway interface.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*ChargeResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) Retry(ctx context.Context, attemptReference string) (*ChargeResult, error) {
	args := m.Called(ctx, attemptReference)
	if r := args.Get(0); r != nil {
		return r.(*ChargeResult), args.Error(1)
	}
	return nil, args.Error(1)
}
