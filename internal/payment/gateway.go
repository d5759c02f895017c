package payment

import (
	"context"
	"errors"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrGatewayFailure   = errors.New("payment gateway request failed")
)

// CreateOrderParams describes the remote payment intent to create. Amount is
// in minor currency units (paise).
type CreateOrderParams struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Gateway is the boundary to the external payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*GatewayOrder, error)
	// VerifyWebhookSignature checks the signature header against the raw
	// request body before anything is parsed.
	VerifyWebhookSignature(body []byte, signature string) error
	// KeyID is the public key the front-end SDK needs to open the checkout.
	KeyID() string
}
