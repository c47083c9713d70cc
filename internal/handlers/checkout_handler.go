package handlers

import (
	"storefront/internal/models"
	"storefront/internal/storefront"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// CheckoutHandler turns the bag into an order.
type CheckoutHandler struct {
	registry *storefront.Registry
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(registry *storefront.Registry) *CheckoutHandler {
	return &CheckoutHandler{registry: registry}
}

// RegisterRoutes registers the checkout routes.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Get("/", h.HandleGetState)
	checkoutRoutes.Post("/", h.HandleCheckout)
}

// HandleGetState reports where the device's latest checkout stands.
func (h *CheckoutHandler) HandleGetState(c *fiber.Ctx) error {
	ctrl, err := controllerFor(c, h.registry)
	if err != nil {
		return respondError(c, err, "Could not load storefront")
	}
	state, lastErr := ctrl.CheckoutState()
	body := fiber.Map{
		"state":          state,
		"contact":        ctrl.Contact(),
		"requires_login": ctrl.CheckoutRequiresLogin(),
		"signed_in":      ctrl.Session() != nil,
	}
	if lastErr != nil {
		body["error"] = lastErr.Error()
	}
	return c.JSON(body)
}

// HandleCheckout takes a multipart form with email, phone, address and the receipt file.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var contact models.ContactDetails
	if err := c.BodyParser(&contact); err != nil {
		return badRequest(c, err)
	}
	// the controller keeps the form past this request
	contact.Email = utils.CopyString(contact.Email)
	contact.Phone = utils.CopyString(contact.Phone)
	contact.Address = utils.CopyString(contact.Address)
	receipt, closeReceipt, err := formUpload(c, "receipt")
	if err != nil {
		return badRequest(c, err)
	}
	defer closeReceipt()

	ctrl, err := controllerFor(c, h.registry)
	if err != nil {
		return respondError(c, err, "Could not load storefront")
	}
	result, err := ctrl.Checkout(contact, receipt)
	if err != nil {
		return respondError(c, err, "Checkout failed")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order sent!",
		"order":   result.Order,
		"stocks":  result.Stocks,
	})
}
