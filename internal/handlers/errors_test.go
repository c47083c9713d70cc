package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/storefront"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", services.ErrReceiptRequired), http.StatusBadRequest},
		{services.ErrLoginRequired, http.StatusUnauthorized},
		{services.ErrAccessDenied, http.StatusForbidden},
		{fmt.Errorf("%w: id x", repositories.ErrOrderNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: a -> b", models.ErrInvalidTransition), http.StatusConflict},
		{storefront.ErrCheckoutInProgress, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondError_LogsAndReportsServerErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("disk on fire"), "Could not do it")
	})
	app.Get("/denied", func(c *fiber.Ctx) error {
		return respondError(c, services.ErrAccessDenied, "ignored")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Could not do it","error":"disk on fire"}`, string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/denied", nil), -1)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{"message":"access denied"}`, string(body))
}
