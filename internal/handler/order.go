package handler

import (
	"errors"
	"net/http"

	"skbeauty-be/internal/order"
	"skbeauty-be/internal/utils"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders order.Service
}

func NewOrderHandler(orders order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	Items []order.OrderLine `json:"items"`
	// DiscountedTotal is the cart total the storefront computed after
	// discounts; when present it overrides the server-side sum.
	DiscountedTotal *float64 `json:"discounted_total"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var body createOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	o, err := h.orders.Create(c.Request.Context(), mustUserID(c), body.Items, body.DiscountedTotal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully. Waiting for admin approval.",
		"order":   o,
	})
}

func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orders.History(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, err := utils.ToUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id."})
		return
	}

	o, err := h.orders.GetUserOrder(c.Request.Context(), mustUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// Status reports the buyer's latest order that has not completed yet, so the
// storefront can show the approval banner.
func (h *OrderHandler) Status(c *gin.Context) {
	o, err := h.orders.CurrentStatus(c.Request.Context(), mustUserID(c))
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusOK, gin.H{"status": nil})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":        o.ID,
		"status":          o.Status,
		"payment_status":  o.PaymentStatus,
		"admin_comment":   o.AdminComment,
		"shipping_charge": o.ShippingCharge,
		"total":           o.Total,
	})
}

func (h *OrderHandler) History(c *gin.Context) {
	orders, err := h.orders.History(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// Checkout finalizes an approved order: the snapshot rows are dropped and the
// payable total is returned.
func (h *OrderHandler) Checkout(c *gin.Context) {
	id, err := utils.ToUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id."})
		return
	}

	o, err := h.orders.Finalize(c.Request.Context(), mustUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout complete.",
		"order":   o,
		"total":   o.Total + float64(o.ShippingCharge),
	})
}
