package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/storage"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProductInput is the admin form for a new product. Price is the raw text typed by the seller.
type ProductInput struct {
	Name        string `json:"name" form:"name"`
	Price       string `json:"price" form:"price"`
	Description string `json:"description" form:"description"`
	Stock       int    `json:"stock" form:"stock"`
}

// AdminService holds the seller-only operations. Every call checks the session first.
type AdminService struct {
	sellerEmail string
	orders      *OrderService
	products    *ProductService
	store       storage.ObjectStore
	now         func() time.Time
	log         zerolog.Logger
}

// NewAdminService creates a new AdminService for the given seller account.
func NewAdminService(sellerEmail string, orders *OrderService, products *ProductService, store storage.ObjectStore) *AdminService {
	return &AdminService{
		sellerEmail: strings.TrimSpace(sellerEmail),
		orders:      orders,
		products:    products,
		store:       store,
		now:         time.Now,
		log:         logging.For("admin"),
	}
}

// IsSeller reports whether session belongs to the seller.
func (s *AdminService) IsSeller(session *models.Session) bool {
	return session != nil && s.sellerEmail != "" && session.Email == s.sellerEmail
}

// Authorize returns ErrAccessDenied unless session belongs to the seller.
func (s *AdminService) Authorize(session *models.Session) error {
	if !s.IsSeller(session) {
		return ErrAccessDenied
	}
	return nil
}

// ListOrders returns every order, newest first.
func (s *AdminService) ListOrders(session *models.Session) ([]models.Order, error) {
	if err := s.Authorize(session); err != nil {
		return nil, err
	}
	return s.orders.GetAllOrders()
}

// ApproveOrder moves a pending order to approved.
func (s *AdminService) ApproveOrder(session *models.Session, id string) (*models.Order, error) {
	if err := s.Authorize(session); err != nil {
		return nil, err
	}
	return s.orders.UpdateOrderStatus(id, models.OrderStatusApproved)
}

// MarkDelivered moves an approved order to delivered.
func (s *AdminService) MarkDelivered(session *models.Session, id string) (*models.Order, error) {
	if err := s.Authorize(session); err != nil {
		return nil, err
	}
	return s.orders.UpdateOrderStatus(id, models.OrderStatusDelivered)
}

// ParsePrice reads a seller-typed price.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q must be greater than zero", ErrInvalidPrice, raw)
	}
	return price.Round(2), nil
}

// ParseStock reads a seller-typed stock count.
func ParseStock(raw string) (int, error) {
	stock, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidStock, raw)
	}
	if stock < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidStock, stock)
	}
	return stock, nil
}

// CreateProduct uploads the image and then inserts the product.
func (s *AdminService) CreateProduct(session *models.Session, in ProductInput, image *storage.Upload) (*models.Product, error) {
	if err := s.Authorize(session); err != nil {
		return nil, err
	}
	if image == nil || image.Body == nil {
		return nil, ErrImageRequired
	}
	price, err := ParsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: %d is negative", ErrInvalidStock, in.Stock)
	}
	product := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		Stock:       in.Stock,
	}
	if product.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}

	imageURL, err := s.store.Upload(storage.BucketProducts, storage.ObjectKey(s.now(), image.Filename), image.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}
	product.ImageURL = imageURL

	if err := s.products.CreateProduct(product); err != nil {
		return nil, err
	}
	s.log.Info().Str("product_id", product.ID).Str("name", product.Name).Msg("product created")
	return product, nil
}

// ProductEdit is the admin form for changing a product's listing. Stock and image are
// managed separately.
type ProductEdit struct {
	Name        string `json:"name" form:"name"`
	Price       string `json:"price" form:"price"`
	Description string `json:"description" form:"description"`
}

// UpdateProduct rewrites a product's name, price and description.
// Existing orders keep the snapshot taken when they were placed.
func (s *AdminService) UpdateProduct(session *models.Session, id string, in ProductEdit) (*models.Product, error) {
	if err := s.Authorize(session); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	price, err := ParsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetProductByID(id)
	if err != nil {
		return nil, err
	}
	product.Name = name
	product.Description = strings.TrimSpace(in.Description)
	product.Price = price
	if err := s.products.UpdateProduct(product); err != nil {
		return nil, err
	}
	s.log.Info().Str("product_id", id).Msg("product updated")
	return product, nil
}

// DeleteProduct permanently removes a product once the seller confirmed it.
func (s *AdminService) DeleteProduct(session *models.Session, id string, confirmed bool) error {
	if err := s.Authorize(session); err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.products.DeleteProduct(id); err != nil {
		return err
	}
	s.log.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

// SetStock overrides a product's stock from seller input.
func (s *AdminService) SetStock(session *models.Session, id string, raw string) (*models.Product, error) {
	if err := s.Authorize(session); err != nil {
		return nil, err
	}
	stock, err := ParseStock(raw)
	if err != nil {
		return nil, err
	}
	if err := s.products.SetStock(id, stock); err != nil {
		return nil, err
	}
	return s.products.GetProductByID(id)
}
