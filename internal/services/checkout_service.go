package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CheckoutRequest is everything one checkout attempt needs.
type CheckoutRequest struct {
	Session *models.Session
	Contact models.ContactDetails
	Receipt *storage.Upload
	Cart    models.Cart
}

// StockChange reports the stock left for one purchased product.
type StockChange struct {
	ProductID string `json:"product_id"`
	Purchased int    `json:"purchased"`
	Stock     int    `json:"stock"`
}

// CheckoutResult is the outcome of a successful checkout.
type CheckoutResult struct {
	Order  *models.Order `json:"order"`
	Stocks []StockChange `json:"stocks"`
}

// CheckoutService uploads the receipt, records the order and takes the sold units out of stock.
// The steps are not transactional: a failure leaves earlier steps in place.
type CheckoutService struct {
	orders       *OrderService
	products     *ProductService
	store        storage.ObjectStore
	validator    *validator.Validate
	requireLogin bool
	metrics      *metrics.Metrics
	now          func() time.Time
	log          zerolog.Logger
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(orders *OrderService, products *ProductService, store storage.ObjectStore, requireLogin bool, m *metrics.Metrics) *CheckoutService {
	return &CheckoutService{
		orders:       orders,
		products:     products,
		store:        store,
		validator:    validator.New(),
		requireLogin: requireLogin,
		metrics:      m,
		now:          time.Now,
		log:          logging.For("checkout"),
	}
}

// WithClock replaces the clock used to name receipts.
func (s *CheckoutService) WithClock(now func() time.Time) *CheckoutService {
	s.now = now
	return s
}

// RequiresLogin reports whether checkout is gated on a session.
func (s *CheckoutService) RequiresLogin() bool {
	return s.requireLogin
}

// Validate runs every local check. A blank email is filled from the session.
func (s *CheckoutService) Validate(req *CheckoutRequest) error {
	err := s.validate(req)
	if err != nil {
		s.metrics.CheckoutResult("rejected")
	}
	return err
}

func (s *CheckoutService) validate(req *CheckoutRequest) error {
	if req.Receipt == nil || req.Receipt.Body == nil {
		return ErrReceiptRequired
	}
	if len(req.Cart) == 0 {
		return ErrEmptyCart
	}
	req.Contact.Email = strings.TrimSpace(req.Contact.Email)
	req.Contact.Address = strings.TrimSpace(req.Contact.Address)
	req.Contact.Phone = strings.TrimSpace(req.Contact.Phone)
	if req.Contact.Email == "" && req.Session != nil {
		req.Contact.Email = req.Session.Email
	}
	if err := s.validator.Struct(req.Contact); err != nil {
		return fmt.Errorf("%w: %v", ErrContactDetailsRequired, err)
	}
	if s.requireLogin && req.Session == nil {
		return ErrLoginRequired
	}
	return nil
}

// Checkout performs one checkout attempt. Nothing remote happens unless Validate passes.
func (s *CheckoutService) Checkout(req CheckoutRequest) (*CheckoutResult, error) {
	if err := s.Validate(&req); err != nil {
		return nil, err
	}

	result, err := s.run(req)
	if err != nil {
		s.metrics.CheckoutResult("failed")
		s.log.Error().Err(err).Str("email", req.Contact.Email).Msg("checkout failed")
		return nil, err
	}
	s.metrics.CheckoutResult("success")
	s.log.Info().Str("order_id", result.Order.ID).Str("total", models.FormatPrice(result.Order.Total)).Msg("checkout complete")
	return result, nil
}

func (s *CheckoutService) run(req CheckoutRequest) (*CheckoutResult, error) {
	key := storage.ObjectKey(s.now(), req.Receipt.Filename)
	receiptURL, err := s.store.Upload(storage.BucketReceipts, key, req.Receipt.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload receipt: %w", err)
	}

	items := make(models.ProductSnapshots, len(req.Cart))
	copy(items, req.Cart)
	order := &models.Order{
		Items:           items,
		Total:           req.Cart.Total(),
		ReceiptURL:      receiptURL,
		CustomerEmail:   req.Contact.Email,
		CustomerPhone:   req.Contact.Phone,
		CustomerAddress: req.Contact.Address,
	}
	if err := s.orders.CreateOrder(order); err != nil {
		return nil, err
	}

	result := &CheckoutResult{Order: order}
	for p, qty := range req.Cart.Grouped() {
		stock, err := s.products.DecrementStock(p.ID, qty)
		if errors.Is(err, repositories.ErrProductNotFound) {
			s.log.Warn().Str("product_id", p.ID).Str("order_id", order.ID).Msg("purchased product no longer exists, stock left untouched")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("order %s created but stock update failed: %w", order.ID, err)
		}
		s.metrics.StockDecremented(qty)
		result.Stocks = append(result.Stocks, StockChange{ProductID: p.ID, Purchased: qty, Stock: stock})
	}
	return result, nil
}
