package handlers

import (
	"storefront/internal/storefront"

	"github.com/gofiber/fiber/v2"
)

// CartHandler serves the device's bag.
type CartHandler struct {
	registry *storefront.Registry
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(registry *storefront.Registry) *CartHandler {
	return &CartHandler{registry: registry}
}

// RegisterRoutes registers the cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Delete("/", h.HandleClearCart)
}

// AddItemRequest is the body of POST /cart/items.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// HandleGetCart returns the grouped bag and its total.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	ctrl, err := controllerFor(c, h.registry)
	if err != nil {
		return respondError(c, err, "Could not load storefront")
	}
	return c.JSON(ctrl.Cart())
}

// HandleAddItem adds units of a product to the bag.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	ctrl, err := controllerFor(c, h.registry)
	if err != nil {
		return respondError(c, err, "Could not load storefront")
	}
	if err := ctrl.AddToCart(req.ProductID, req.Quantity); err != nil {
		return respondError(c, err, "Could not add to bag")
	}
	return c.Status(fiber.StatusCreated).JSON(ctrl.Cart())
}

// HandleClearCart empties the bag. The request must carry confirm=true.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	ctrl, err := controllerFor(c, h.registry)
	if err != nil {
		return respondError(c, err, "Could not load storefront")
	}
	if err := ctrl.ClearCart(c.QueryBool("confirm")); err != nil {
		return respondError(c, err, "Could not clear bag")
	}
	return c.JSON(ctrl.Cart())
}
