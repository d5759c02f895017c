package utils

import (
	"fmt"
	"strconv"
)

func ToUint(id string) (uint, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	return uint(n), err
}

func StrPtr(s string) *string {
	return &s
}

// OrderReceipt builds the gateway receipt string for an order.
func OrderReceipt(orderID uint) string {
	return fmt.Sprintf("order_%d", orderID)
}
