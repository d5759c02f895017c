package handler

import (
	"net/http"

	"skbeauty-be/internal/order"
	"skbeauty-be/internal/payment"
	"skbeauty-be/internal/utils"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	orders  order.Service
	gateway payment.Gateway
}

func NewPaymentHandler(orders order.Service, gateway payment.Gateway) *PaymentHandler {
	return &PaymentHandler{orders: orders, gateway: gateway}
}

// CreateGatewayOrder opens a payment intent for an approved order and returns
// everything the checkout SDK needs on the client.
func (h *PaymentHandler) CreateGatewayOrder(c *gin.Context) {
	id, err := utils.ToUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id."})
		return
	}

	gatewayOrder, total, err := h.orders.InitiatePayment(c.Request.Context(), mustUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":      h.gateway.KeyID(),
		"order_id": gatewayOrder.ID,
		"amount":   gatewayOrder.Amount,
		"currency": gatewayOrder.Currency,
		"total":    total,
	})
}

type completePaymentRequest struct {
	PaymentID         string `json:"payment_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
}

// CompletePayment is the synchronous confirmation the storefront fires after
// the checkout SDK reports success.
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	id, err := utils.ToUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id."})
		return
	}

	var body completePaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	paymentID := body.PaymentID
	if paymentID == "" {
		paymentID = body.RazorpayPaymentID
	}
	if paymentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment id is required."})
		return
	}

	o, err := h.orders.CompletePayment(c.Request.Context(), mustUserID(c), id, paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment completed successfully.",
		"order":   o,
	})
}
