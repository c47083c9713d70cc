package repositories

import (
	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access.
// Orders are never deleted.
type OrderRepository interface {
	// GetAll returns orders newest first.
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	// GetByCustomerEmail returns the order history of one customer, newest first.
	GetByCustomerEmail(email string) ([]models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id string, status models.OrderStatus) error
}
