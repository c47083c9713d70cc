package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

const (
	DeviceHeader = "X-Device-ID"
	DeviceCookie = "device_id"
	deviceKey    = "device_id"
	issuedKey    = "device_issued"
)

// DeviceIDFrom returns the device id stored by DeviceID.
func DeviceIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(deviceKey).(string)
	return id
}

// DeviceIssued reports whether DeviceID had to mint a new id for this request,
// meaning the device has no state on the server yet.
func DeviceIssued(c *fiber.Ctx) bool {
	issued, _ := c.Locals(issuedKey).(bool)
	return issued
}

// DeviceID identifies the calling device by header or cookie, issuing a new id cookie when
// neither is present. Each device keeps its own bag.
func DeviceID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// header and cookie values alias the pooled request buffer
		id := utils.CopyString(c.Get(DeviceHeader))
		if id == "" {
			id = utils.CopyString(c.Cookies(DeviceCookie))
		}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
			c.Cookie(&fiber.Cookie{
				Name:     DeviceCookie,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().AddDate(1, 0, 0),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
			c.Locals(issuedKey, true)
		}
		c.Locals(deviceKey, id)
		return c.Next()
	}
}
