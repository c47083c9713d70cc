package handlers

import (
	"storefront/internal/storefront"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the catalog.
type ProductHandler struct {
	registry *storefront.Registry
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(registry *storefront.Registry) *ProductHandler {
	return &ProductHandler{registry: registry}
}

// RegisterRoutes registers the catalog routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
}

// HandleGetProducts returns the catalog newest first, with availability and units sold.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	ctrl, err := viewerFor(c, h.registry)
	if err != nil {
		return respondError(c, err, "Could not load storefront")
	}
	if err := ctrl.RefreshCatalog(); err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(ctrl.Catalog())
}

// HandleGetProductByID returns one catalog entry.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	ctrl, err := viewerFor(c, h.registry)
	if err != nil {
		return respondError(c, err, "Could not load storefront")
	}
	item, err := ctrl.CatalogItem(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	return c.JSON(item)
}
