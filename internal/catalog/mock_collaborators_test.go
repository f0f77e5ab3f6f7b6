package catalog

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of the Repository interface.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByName(ctx context.Context, name string) (*Record, error) {
	args := m.Called(ctx, name)
	if r := args.Get(0); r != nil {
		return r.(*Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, rec *Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// MockIndexer is a mock implementation of the Indexer interface.
type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexProduct(ctx context.Context, rec Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
