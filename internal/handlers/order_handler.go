package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler serves the signed-in customer's order history.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes. mw normally carries AuthRequired.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, mw ...fiber.Handler) {
	orderRoutes := router.Group("/orders", mw...)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// HandleGetOrders lists the orders placed with the session's email, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)
	if session == nil {
		return respondError(c, services.ErrLoginRequired, "Could not retrieve orders")
	}
	orders, err := h.service.GetOrderHistory(session.Email)
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID returns one of the session's orders. Other customers' orders read as not found.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)
	if session == nil {
		return respondError(c, services.ErrLoginRequired, "Could not retrieve order")
	}
	order, err := h.service.GetOrderByID(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	if order.CustomerEmail != session.Email {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
		})
	}
	return c.JSON(order)
}
