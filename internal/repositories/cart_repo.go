package repositories

import (
	"storefront/internal/models"
)

// CartKey is the fixed storage key of a device's cart.
const CartKey = "purpleCart"

// DeviceCartKey namespaces CartKey for one device.
func DeviceCartKey(deviceID string) string {
	if deviceID == "" {
		return CartKey
	}
	return CartKey + ":" + deviceID
}

// CartRepository persists carts on the device side.
// A missing key loads as an empty cart.
type CartRepository interface {
	Load(key string) (models.Cart, error)
	Save(key string, cart models.Cart) error
}
