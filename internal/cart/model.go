package cart

import (
	"time"

	"skbeauty-be/internal/product"
)

type CartItem struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"-"`
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`

	Product *product.Product `json:"product,omitempty"`
}

type AddItemParams struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type UpdateItemParams struct {
	Quantity int `json:"quantity"`
}
