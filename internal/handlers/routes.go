package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/internal/storefront"

	"github.com/gofiber/fiber/v2"
)

// Deps are the services the API routes are built on.
type Deps struct {
	Auth     *services.AuthService
	Orders   *services.OrderService
	Admin    *services.AdminService
	Registry *storefront.Registry
}

// RegisterRoutes mounts the whole API under /api/v1.
// Every route sees the device id and, when a valid token is sent, the session.
func RegisterRoutes(router fiber.Router, d Deps) fiber.Router {
	apiV1 := router.Group("/api/v1", middleware.DeviceID(), middleware.OptionalAuth(d.Auth))

	NewAuthHandler(d.Auth).RegisterRoutes(apiV1)
	NewProductHandler(d.Registry).RegisterRoutes(apiV1)
	NewCartHandler(d.Registry).RegisterRoutes(apiV1)
	NewCheckoutHandler(d.Registry).RegisterRoutes(apiV1)
	NewOrderHandler(d.Orders).RegisterRoutes(apiV1, middleware.AuthRequired(d.Auth))
	NewAdminHandler(d.Admin).RegisterRoutes(apiV1, middleware.AuthRequired(d.Auth), middleware.AdminRequired(d.Admin))
	return apiV1
}
