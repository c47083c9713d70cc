package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/storage"
	"storefront/internal/storefront"

	"github.com/gofiber/fiber/v2"
)

// controllerFor returns the calling device's controller with the request's session applied.
func controllerFor(c *fiber.Ctx, registry *storefront.Registry) (*storefront.Controller, error) {
	ctrl, err := registry.Get(middleware.DeviceIDFrom(c))
	if err != nil {
		return nil, err
	}
	ctrl.SetSession(middleware.SessionFrom(c))
	return ctrl, nil
}

// viewerFor is controllerFor for read-only requests. A device seen for the first time
// gets a throwaway controller so that cookie-less clients do not fill the registry.
func viewerFor(c *fiber.Ctx, registry *storefront.Registry) (*storefront.Controller, error) {
	if !middleware.DeviceIssued(c) {
		return controllerFor(c, registry)
	}
	ctrl, err := registry.Detached(middleware.DeviceIDFrom(c))
	if err != nil {
		return nil, err
	}
	ctrl.SetSession(middleware.SessionFrom(c))
	return ctrl, nil
}

// formUpload opens the named multipart file. A missing field yields a nil upload.
func formUpload(c *fiber.Ctx, field string) (*storage.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &storage.Upload{Filename: header.Filename, Body: f}, func() { f.Close() }, nil
}
