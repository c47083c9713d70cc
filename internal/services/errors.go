package services

import "errors"

// Validation failures. These are detected before any remote call is made.
var (
	ErrReceiptRequired        = errors.New("receipt image is required")
	ErrImageRequired          = errors.New("product image is required")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrContactDetailsRequired = errors.New("email and address are required")
	ErrInvalidPrice           = errors.New("invalid price")
	ErrInvalidStock           = errors.New("invalid stock value")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrOutOfStock             = errors.New("not enough stock")
	ErrConfirmationRequired   = errors.New("confirmation required")
	ErrInvalidProduct         = errors.New("invalid product")
)

// Authorization and authentication failures.
var (
	ErrLoginRequired      = errors.New("login required")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAlreadyRegistered  = errors.New("already registered")
)

var validationErrors = []error{
	ErrReceiptRequired,
	ErrImageRequired,
	ErrEmptyCart,
	ErrContactDetailsRequired,
	ErrInvalidPrice,
	ErrInvalidStock,
	ErrInvalidQuantity,
	ErrOutOfStock,
	ErrConfirmationRequired,
	ErrInvalidProduct,
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
