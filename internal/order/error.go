package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrNoItems            = errors.New("No items provided. Please add items to your order.")
	ErrPendingOrderExists = errors.New("You already have a pending order. Please wait for admin approval or rejection before placing a new order.")
	ErrInvalidAction      = errors.New("Invalid action. Must be 'approve' or 'reject'.")
	ErrNotDecidable       = errors.New("only pending orders can be approved or rejected")
	ErrOrderNotApproved   = errors.New("order is not in approved status")
)

// InsufficientStockError names the short product so the caller can surface an
// itemized message.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d",
		e.ProductName, e.Available, e.Requested)
}
