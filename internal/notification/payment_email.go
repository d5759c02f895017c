package notification

import (
	"fmt"
	"strings"
	"time"
)

// OrderSummary carries everything the payment-success email needs, so this
// package stays independent of the order package.
type OrderSummary struct {
	OrderID        uint
	CreatedAt      time.Time
	Address        string
	Total          float64
	ShippingCharge int
	Lines          []OrderSummaryLine
}

type OrderSummaryLine struct {
	ProductName string
	Quantity    int
	Price       float64
}

const paymentSuccessSubject = "Payment Successful - Shree Krishna Beauty Products"

// PaymentSuccessEmail renders the plain-text and HTML bodies for a completed
// payment.
func PaymentSuccessEmail(o OrderSummary) (subject, textBody, htmlBody string) {
	textBody = fmt.Sprintf(
		"Thank you for your purchase! Your order #%d was successful.", o.OrderID)

	var itemRows strings.Builder
	for _, line := range o.Lines {
		itemRows.WriteString(fmt.Sprintf(
			"<tr><td style='padding:8px;border:1px solid #eee;'>%s</td>"+
				"<td style='padding:8px;border:1px solid #eee;'>%d</td>"+
				"<td style='padding:8px;border:1px solid #eee;'>₹%.2f</td>"+
				"<td style='padding:8px;border:1px solid #eee;'>₹%.2f</td></tr>",
			line.ProductName, line.Quantity, line.Price, line.Price*float64(line.Quantity),
		))
	}

	htmlBody = fmt.Sprintf(`
<div style='font-family:sans-serif;background:#f7fafc;padding:32px;'>
  <div style='max-width:600px;margin:auto;background:white;border-radius:16px;padding:32px;'>
    <h1 style='color:#22c55e;text-align:center;'>Payment Successful!</h1>
    <p style='text-align:center;color:#555;'>Thank you for your purchase from <b>Shree Krishna Beauty Products</b>!</p>
    <div style='background:#e0f7fa;padding:16px 24px;border-radius:12px;margin-bottom:24px;'>
      <h2 style='color:#0ea5e9;margin:0 0 8px 0;'>Order #%d</h2>
      <p style='margin:0;color:#555;'>Placed on: %s</p>
    </div>
    <table style='width:100%%;border-collapse:collapse;margin-bottom:24px;'>
      <thead>
        <tr style='background:#f3f4f6;'>
          <th style='padding:8px;border:1px solid #eee;'>Product</th>
          <th style='padding:8px;border:1px solid #eee;'>Qty</th>
          <th style='padding:8px;border:1px solid #eee;'>Price</th>
          <th style='padding:8px;border:1px solid #eee;'>Total</th>
        </tr>
      </thead>
      <tbody>%s</tbody>
    </table>
    <p><b>Subtotal:</b> ₹%.2f</p>
    <p><b>Shipping:</b> ₹%d</p>
    <p style='color:#22c55e;'><b>Total Paid:</b> ₹%.2f</p>
    <div style='background:#fef9c3;padding:16px 24px;border-radius:12px;'>
      <h3 style='color:#eab308;margin:0 0 8px 0;'>Delivery Address</h3>
      <p style='margin:0;color:#555;'>%s</p>
    </div>
    <p style='text-align:center;color:#555;margin-top:32px;'>We hope you enjoy your products!<br/>Thank you for shopping with us!</p>
  </div>
</div>`,
		o.OrderID,
		o.CreatedAt.Format("02 Jan 2006, 03:04 PM"),
		itemRows.String(),
		o.Total,
		o.ShippingCharge,
		o.Total+float64(o.ShippingCharge),
		o.Address,
	)

	return paymentSuccessSubject, textBody, htmlBody
}
