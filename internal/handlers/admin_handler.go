package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the seller dashboard.
type AdminHandler struct {
	admin *services.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// RegisterRoutes registers the admin routes. mw normally carries AuthRequired and AdminRequired;
// the service checks the seller again regardless.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, mw ...fiber.Handler) {
	adminRoutes := router.Group("/admin", mw...)
	adminRoutes.Get("/orders", h.HandleListOrders)
	adminRoutes.Patch("/orders/:id/approve", h.HandleApproveOrder)
	adminRoutes.Patch("/orders/:id/deliver", h.HandleDeliverOrder)
	adminRoutes.Post("/products", h.HandleCreateProduct)
	adminRoutes.Patch("/products/:id", h.HandleUpdateProduct)
	adminRoutes.Delete("/products/:id", h.HandleDeleteProduct)
	adminRoutes.Patch("/products/:id/stock", h.HandleSetStock)
}

// HandleListOrders lists every order, newest first.
func (h *AdminHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.admin.ListOrders(middleware.SessionFrom(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

func (h *AdminHandler) transition(c *fiber.Ctx, move func(*models.Session, string) (*models.Order, error)) error {
	order, err := move(middleware.SessionFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Order update failed")
	}
	return c.JSON(order)
}

// HandleApproveOrder moves a pending order to approved.
func (h *AdminHandler) HandleApproveOrder(c *fiber.Ctx) error {
	return h.transition(c, h.admin.ApproveOrder)
}

// HandleDeliverOrder moves an approved order to delivered.
func (h *AdminHandler) HandleDeliverOrder(c *fiber.Ctx) error {
	return h.transition(c, h.admin.MarkDelivered)
}

// HandleCreateProduct takes a multipart form with name, price, description, stock and image.
func (h *AdminHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	image, closeImage, err := formUpload(c, "image")
	if err != nil {
		return badRequest(c, err)
	}
	defer closeImage()

	product, err := h.admin.CreateProduct(middleware.SessionFrom(c), in, image)
	if err != nil {
		return respondError(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct changes a product's name, price and description.
func (h *AdminHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var in services.ProductEdit
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	product, err := h.admin.UpdateProduct(middleware.SessionFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product. The request must carry confirm=true.
func (h *AdminHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.admin.DeleteProduct(middleware.SessionFrom(c), id, c.QueryBool("confirm")); err != nil {
		return respondError(c, err, "Could not delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetStockRequest carries the stock exactly as the seller typed it.
type SetStockRequest struct {
	Stock string `json:"stock"`
}

// HandleSetStock overrides a product's stock.
func (h *AdminHandler) HandleSetStock(c *fiber.Ctx) error {
	var req SetStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	product, err := h.admin.SetStock(middleware.SessionFrom(c), c.Params("id"), req.Stock)
	if err != nil {
		return respondError(c, err, "Could not update stock")
	}
	return c.JSON(product)
}
