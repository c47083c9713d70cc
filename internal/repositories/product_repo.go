package repositories

import (
	"storefront/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// GetAll returns products newest first.
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	SetStock(id string, stock int) error
	// DecrementStock subtracts n from the stock, never going below zero, and returns the new stock.
	DecrementStock(id string, n int) (int, error)
}
