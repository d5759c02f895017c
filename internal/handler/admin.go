package handler

import (
	"net/http"

	"skbeauty-be/internal/metrics"
	"skbeauty-be/internal/order"
	"skbeauty-be/internal/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	orders  order.Service
	metrics *metrics.Registry
}

func NewAdminHandler(orders order.Service, reg *metrics.Registry) *AdminHandler {
	return &AdminHandler{orders: orders, metrics: reg}
}

func (h *AdminHandler) ListPendingOrders(c *gin.Context) {
	orders, err := h.orders.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

type decideRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment"`
	// ShippingCharge arrives as whatever the dashboard sends: number, numeric
	// string, or missing.
	ShippingCharge any `json:"shipping_charge"`
}

func (h *AdminHandler) DecideOrder(c *gin.Context) {
	id, err := utils.ToUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id."})
		return
	}

	var body decideRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	o, err := h.orders.Decide(c.Request.Context(), id, body.Action, body.Comment, body.ShippingCharge)
	if err != nil {
		respondError(c, err)
		return
	}

	msg := "Order approved successfully."
	if body.Action == "reject" {
		msg = "Order rejected successfully."
	}
	c.JSON(http.StatusOK, gin.H{
		"message": msg,
		"order":   o,
	})
}

func (h *AdminHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
