package services

import (
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	validate *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo:     repo,
		validate: validator.New(),
	}
}

// GetAllProducts retrieves all products, most recently created first.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if !product.Price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than zero", ErrInvalidPrice)
	}
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID. Orders keep their snapshots.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// SetStock overwrites a product's stock.
func (s *ProductService) SetStock(id string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidStock, stock)
	}
	return s.repo.SetStock(id, stock)
}

// DecrementStock removes sold units, flooring at zero.
func (s *ProductService) DecrementStock(id string, units int) (int, error) {
	return s.repo.DecrementStock(id, units)
}
