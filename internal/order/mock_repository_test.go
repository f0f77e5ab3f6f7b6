package order

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of the Repository interface.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByTransactionID(ctx context.Context, transactionID string) (*Order, error) {
	args := m.Called(ctx, transactionID)
	if o := args.Get(0); o != nil {
		return o.(*Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}
