package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidStock    = errors.New("stock must not be negative")
	ErrInvalidDiscount = errors.New("discount percent must be between 0 and 100")
)
