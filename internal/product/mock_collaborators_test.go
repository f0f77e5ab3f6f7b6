package product

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of the Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, p Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockPublisher is a mock implementation of the rabbitmq.Publisher
// interface.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	args := m.Called(ctx, exchange, routingKey, body)
	return args.Error(0)
}

func (m *MockPublisher) PublishJSON(ctx context.Context, exchange, routingKey string, payload interface{}) error {
	args := m.Called(ctx, exchange, routingKey, payload)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
