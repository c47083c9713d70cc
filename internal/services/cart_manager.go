package services

import (
	"fmt"
	"iter"
	"sync"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartManager keeps one device's cart in memory and writes every change through to storage.
type CartManager struct {
	mu      sync.RWMutex
	repo    repositories.CartRepository
	key     string
	cart    models.Cart
	metrics *metrics.Metrics
}

// NewCartManager creates a manager for the cart stored under key.
func NewCartManager(repo repositories.CartRepository, key string, m *metrics.Metrics) *CartManager {
	return &CartManager{repo: repo, key: key, metrics: m}
}

// Load replaces the in-memory cart with the persisted one.
func (m *CartManager) Load() error {
	cart, err := m.repo.Load(m.key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.cart = cart
	m.mu.Unlock()
	return nil
}

// commit persists next and only then swaps it in, so memory never runs ahead of storage.
func (m *CartManager) commit(next models.Cart) error {
	if err := m.repo.Save(m.key, next); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	m.cart = next
	return nil
}

// Add appends quantity snapshots of product. Stock limits are checked by the caller.
func (m *CartManager) Add(product models.Product, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.commit(m.cart.With(product.Snapshot(), quantity)); err != nil {
		return err
	}
	m.metrics.AddedToCart(quantity)
	return nil
}

// Clear empties the cart.
func (m *CartManager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commit(models.Cart{})
}

// Remove takes the ordered entries out of the cart and keeps anything added since.
func (m *CartManager) Remove(ordered models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commit(m.cart.Without(ordered))
}

// Items returns a copy of the flat cart.
func (m *CartManager) Items() models.Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(models.Cart, len(m.cart))
	copy(out, m.cart)
	return out
}

// Grouped yields (product, quantity) pairs of the cart as it is when Grouped is called.
func (m *CartManager) Grouped() iter.Seq2[models.ProductSnapshot, int] {
	return m.Items().Grouped()
}

// Total is the sum of every entry's price.
func (m *CartManager) Total() decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cart.Total()
}
