package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentSuccessEmail(t *testing.T) {
	summary := OrderSummary{
		OrderID:        42,
		CreatedAt:      time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		Address:        "12 MG Road, Pune",
		Total:          998,
		ShippingCharge: 50,
		Lines: []OrderSummaryLine{
			{ProductName: "Face Serum", Quantity: 2, Price: 499},
		},
	}

	subject, text, html := PaymentSuccessEmail(summary)

	assert.Equal(t, "Payment Successful - Shree Krishna Beauty Products", subject)
	assert.Contains(t, text, "#42")

	assert.Contains(t, html, "Order #42")
	assert.Contains(t, html, "Face Serum")
	assert.Contains(t, html, "₹499.00")
	// Line total = price × qty.
	assert.Contains(t, html, "₹998.00")
	// Total paid includes shipping.
	assert.Contains(t, html, "₹1048.00")
	assert.Contains(t, html, "12 MG Road, Pune")

	// The rendered HTML must survive the transport sanitizer intact apart
	// from the rupee glyph it deliberately allows.
	assert.True(t, strings.Contains(SanitizeForTransport(html), "₹1048.00"))
}
