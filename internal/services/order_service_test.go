package services_test

import (
	"errors"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderService_CreateOrderPublishesEvent(t *testing.T) {
	pub := new(MockPublisher)
	service := services.NewOrderService(repositories.NewMockOrderRepository(), pub, nil)

	pub.On("PublishOrderEvent", mock.MatchedBy(func(e rabbitmq.OrderEvent) bool {
		return e.Type == rabbitmq.EventOrderCreated && e.Status == "pending" && e.Total == "25.00" && e.Items == 3
	})).Return(nil).Once()

	order := &models.Order{
		Items: models.ProductSnapshots{
			product("A", "A", "10", 1).Snapshot(),
			product("A", "A", "10", 1).Snapshot(),
			product("B", "B", "5", 1).Snapshot(),
		},
		Total:  decimal.NewFromInt(25),
		Status: models.OrderStatusDelivered,
	}
	require.NoError(t, service.CreateOrder(order))
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status, "new orders always start pending")
	pub.AssertExpectations(t)
}

func TestOrderService_PublishFailureDoesNotFailOrder(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishOrderEvent", mock.Anything).Return(errors.New("broker down"))
	repo := repositories.NewMockOrderRepository()
	service := services.NewOrderService(repo, pub, nil)

	order := &models.Order{Total: decimal.NewFromInt(1)}
	require.NoError(t, service.CreateOrder(order))
	_, err := repo.GetByID(order.ID)
	assert.NoError(t, err)
}

func TestOrderService_StatusLifecycle(t *testing.T) {
	service := services.NewOrderService(repositories.NewMockOrderRepository(), nil, nil)
	order := &models.Order{Total: decimal.NewFromInt(1)}
	require.NoError(t, service.CreateOrder(order))

	_, err := service.UpdateOrderStatus(order.ID, models.OrderStatusDelivered)
	assert.ErrorIs(t, err, models.ErrInvalidTransition, "cannot skip approval")

	got, err := service.UpdateOrderStatus(order.ID, models.OrderStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusApproved, got.Status)

	got, err = service.UpdateOrderStatus(order.ID, models.OrderStatusApproved)
	require.NoError(t, err, "re-approving is a no-op")
	assert.Equal(t, models.OrderStatusApproved, got.Status)

	got, err = service.UpdateOrderStatus(order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, got.Status)

	_, err = service.UpdateOrderStatus(order.ID, models.OrderStatusApproved)
	assert.ErrorIs(t, err, models.ErrInvalidTransition, "no reverse transitions")

	_, err = service.UpdateOrderStatus("missing", models.OrderStatusApproved)
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
}

func TestOrderService_SoldCountsAndHistory(t *testing.T) {
	service := services.NewOrderService(repositories.NewMockOrderRepository(), nil, nil)
	a := product("A", "A", "10", 1).Snapshot()
	b := product("B", "B", "5", 1).Snapshot()
	require.NoError(t, service.CreateOrder(&models.Order{Items: models.ProductSnapshots{a, a}, CustomerEmail: "ann@example.com"}))
	require.NoError(t, service.CreateOrder(&models.Order{Items: models.ProductSnapshots{b}, CustomerEmail: "bob@example.com"}))

	counts, err := service.SoldCounts()
	require.NoError(t, err)
	assert.Equal(t, models.SoldCounts{"A": 2, "B": 1}, counts)

	history, err := service.GetOrderHistory("ann@example.com")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	none, err := service.GetOrderHistory("")
	require.NoError(t, err)
	assert.Empty(t, none)
}
