package repositories

import (
	"sync"

	"storefront/internal/models"
)

// MockCartRepository keeps carts encoded in memory, so loads never share slices with saves.
type MockCartRepository struct {
	carts map[string][]byte
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string][]byte),
	}
}

// Load returns the cart stored under key.
func (r *MockCartRepository) Load(key string) (models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items, err := models.DecodeSnapshots(r.carts[key])
	if err != nil {
		return nil, err
	}
	return models.Cart(items), nil
}

// Save replaces the cart stored under key.
func (r *MockCartRepository) Save(key string, cart models.Cart) error {
	raw, err := models.EncodeSnapshots(cart)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[key] = raw
	return nil
}
