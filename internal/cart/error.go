package cart

import "errors"

var (
	// Cross-user access is reported as not-found, never as a permission error.
	ErrCartItemNotFound = errors.New("cart item not found")

	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)
