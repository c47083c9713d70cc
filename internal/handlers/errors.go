package handlers

import (
	"errors"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/storefront"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps service and repository errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case services.IsValidation(err):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrLoginRequired),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrAccessDenied):
		return fiber.StatusForbidden
	case errors.Is(err, repositories.ErrProductNotFound),
		errors.Is(err, repositories.ErrOrderNotFound),
		errors.Is(err, repositories.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, storefront.ErrCheckoutInProgress),
		errors.Is(err, services.ErrAlreadyRegistered):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error, message string) error {
	status := statusFor(err)
	if status == fiber.StatusForbidden {
		return c.Status(status).JSON(fiber.Map{"message": "access denied"})
	}
	if status >= fiber.StatusInternalServerError {
		log := logging.For("handlers")
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg(message)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
