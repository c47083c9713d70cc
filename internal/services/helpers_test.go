package services_test

import (
	"io"

	"storefront/internal/models"
	"storefront/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockObjectStore is a mock implementation of storage.ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(bucket, key string, body io.Reader) (string, error) {
	args := m.Called(bucket, key, body)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) PublicURL(bucket, key string) string {
	args := m.Called(bucket, key)
	return args.String(0)
}

// MockPublisher records published order events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(event rabbitmq.OrderEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func product(id, name, price string, stock int) models.Product {
	return models.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}
