package order

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusApproved  OrderStatus = "approved"
	StatusRejected  OrderStatus = "rejected"
	StatusCompleted OrderStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

type Order struct {
	ID             uint          `json:"id"`
	UserID         uint          `json:"user"`
	Total          float64       `json:"total"`
	ShippingCharge int           `json:"shipping_charge"`
	Status         OrderStatus   `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	TransactionID  string        `json:"transaction_id"`
	Address        string        `json:"address"`
	AdminComment   string        `json:"admin_comment"`
	DecisionTime   *time.Time    `json:"decision_time"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	Items []OrderItem `json:"items"`

	// Populated for admin listings only.
	Username  string `json:"user_username,omitempty"`
	UserPhone string `json:"user_phone,omitempty"`
}

// OrderItem is an order-owned snapshot row, decoupled from the user's live
// cart so later cart edits cannot affect a placed order.
type OrderItem struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Stock       int     `json:"-"`
	Quantity    int     `json:"quantity"`
}

// OrderLine is one requested line in a checkout submission.
type OrderLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}
