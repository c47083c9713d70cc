package services

import (
	"fmt"
	"time"

	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventPublisher delivers order events to other processes.
type EventPublisher interface {
	PublishOrderEvent(event rabbitmq.OrderEvent) error
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewOrderService creates a new OrderService. publisher and m may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, publisher EventPublisher, m *metrics.Metrics) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		publisher: publisher,
		metrics:   m,
		log:       logging.For("orders"),
	}
}

// GetAllOrders retrieves all orders, newest first.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrderHistory returns the orders placed with the given email.
func (s *OrderService) GetOrderHistory(email string) ([]models.Order, error) {
	if email == "" {
		return []models.Order{}, nil
	}
	return s.orderRepo.GetByCustomerEmail(email)
}

// CreateOrder stores a new pending order and announces it.
func (s *OrderService) CreateOrder(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.Status = models.OrderStatusPending

	if err := s.orderRepo.Create(order); err != nil {
		return fmt.Errorf("failed to create order in repository: %w", err)
	}
	s.publish(rabbitmq.EventOrderCreated, order)
	return nil
}

// UpdateOrderStatus moves an order forward in its lifecycle.
// Setting the current status again is a no-op.
func (s *OrderService) UpdateOrderStatus(id string, status models.OrderStatus) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := order.Status.CheckTransition(status); err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	if order.Status == status {
		return order, nil
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	order.Status = status
	s.metrics.OrderTransition(string(status))
	s.publish(rabbitmq.EventOrderStatusChanged, order)
	return order, nil
}

// SoldCounts rebuilds the per-product sold units from every order.
func (s *OrderService) SoldCounts() (models.SoldCounts, error) {
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for sold counts: %w", err)
	}
	return models.ComputeSoldCounts(orders), nil
}

// publish is best effort: a broker failure never fails the order operation.
func (s *OrderService) publish(eventType string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := rabbitmq.OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		Status:        string(order.Status),
		Total:         models.FormatPrice(order.Total),
		Items:         len(order.Items),
		CustomerEmail: order.CustomerEmail,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishOrderEvent(event); err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID).Str("type", eventType).Msg("failed to publish order event")
	}
}
