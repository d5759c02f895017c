package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"skbeauty-be/internal/logger"
	"skbeauty-be/internal/metrics"
	"skbeauty-be/internal/order"
	"skbeauty-be/internal/payment"
	"skbeauty-be/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	orders      order.Service
	gateway     payment.Gateway
	paymentRepo payment.Repository
	metrics     *metrics.Registry
}

func NewWebhookHandler(
	orders order.Service,
	gateway payment.Gateway,
	paymentRepo payment.Repository,
	reg *metrics.Registry,
) *WebhookHandler {
	return &WebhookHandler{
		orders:      orders,
		gateway:     gateway,
		paymentRepo: paymentRepo,
		metrics:     reg,
	}
}

// Razorpay receives gateway callbacks. The signature is checked against the
// raw body before anything is parsed; once it passes, the handler answers 200
// for every outcome it can absorb, because a non-2xx makes the gateway retry.
// Transient processing failures are the exception: they answer 5xx on purpose
// so the redelivery can re-claim the event row and finish the work.
func (h *WebhookHandler) Razorpay(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "webhook"))

	h.metrics.WebhooksReceived.Inc()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body."})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if err := h.gateway.VerifyWebhookSignature(body, signature); err != nil {
		h.metrics.WebhooksBadSig.Inc()
		log.Warn("webhook signature rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook signature."})
		return
	}

	var payload payment.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn("webhook body is not valid json", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload."})
		return
	}

	entity := payload.Payload.Payment.Entity
	gatewayOrderID := entity.OrderID
	if gatewayOrderID == "" {
		gatewayOrderID = payload.Payload.Order.Entity.ID
	}

	// Razorpay sends a unique event id header; replayed deliveries are
	// detected there and acknowledged without touching any order.
	eventID := c.GetHeader("X-Razorpay-Event-Id")
	if eventID == "" {
		eventID = payload.Event + ":" + entity.ID
	}

	webhookID, duplicate, err := h.paymentRepo.SaveWebhookEvent(
		ctx, eventID, payload.Event, gatewayOrderID, body)
	if err != nil {
		log.Error("failed to record webhook event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
		return
	}
	if duplicate {
		h.metrics.WebhooksDuplicate.Inc()
		log.Info("duplicate webhook ignored", zap.String("event_id", eventID))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if err := h.dispatch(c, &payload); err != nil {
		// The event row stays unprocessed, so the gateway's retry of the
		// same event id will be dispatched again rather than deduplicated.
		log.Error("webhook processing failed",
			zap.String("event", payload.Event),
			zap.Error(err),
		)
		if mErr := h.paymentRepo.MarkWebhookFailed(ctx, webhookID, err.Error()); mErr != nil {
			log.Error("failed to mark webhook failed", zap.Error(mErr))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed."})
		return
	}

	if err := h.paymentRepo.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Error("failed to mark webhook processed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WebhookHandler) dispatch(c *gin.Context, payload *payment.WebhookPayload) error {
	ctx := c.Request.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("handler", "webhook"),
		zap.String("event", payload.Event),
	)

	switch payload.Event {
	case payment.EventPaymentCaptured, payment.EventOrderPaid:
		orderID, ok := h.resolveOrderID(payload)
		if !ok {
			log.Warn("webhook carries no resolvable order id")
			return nil
		}
		if err := h.orders.MarkPaid(ctx, orderID, payload.Payload.Payment.Entity.ID); err != nil {
			if err == order.ErrOrderNotFound {
				log.Warn("webhook for unknown order", zap.Uint("order_id", orderID))
				return nil
			}
			return err
		}
		h.updatePaymentRow(ctx, payload, "captured")

	case payment.EventPaymentFailed:
		orderID, ok := h.resolveOrderID(payload)
		if !ok {
			log.Warn("webhook carries no resolvable order id")
			return nil
		}
		if err := h.orders.MarkPaymentFailed(ctx, orderID); err != nil {
			if err == order.ErrOrderNotFound {
				log.Warn("webhook for unknown order", zap.Uint("order_id", orderID))
				return nil
			}
			return err
		}
		h.updatePaymentRow(ctx, payload, "failed")

	case payment.EventPaymentAuthorized:
		log.Info("payment authorized, awaiting capture")

	default:
		log.Info("unhandled webhook event")
	}

	return nil
}

// updatePaymentRow keeps the payments table in step with the gateway's view.
// The order itself is already settled at this point, so a bookkeeping miss is
// logged and nothing else.
func (h *WebhookHandler) updatePaymentRow(ctx context.Context, payload *payment.WebhookPayload, status string) {
	gatewayOrderID := payload.Payload.Payment.Entity.OrderID
	if gatewayOrderID == "" {
		return
	}
	if err := h.paymentRepo.UpdatePaymentStatus(ctx, gatewayOrderID, status); err != nil {
		logger.FromCtx(ctx).Error("failed to update payment row",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.Error(err),
		)
	}
}

// resolveOrderID digs the internal order id out of the notes the payment
// intent was created with, falling back to the receipt string.
func (h *WebhookHandler) resolveOrderID(payload *payment.WebhookPayload) (uint, bool) {
	if v := payload.Payload.Payment.Entity.Notes["order_id"]; v != "" {
		if id, err := utils.ToUint(v); err == nil {
			return id, true
		}
	}
	if v := payload.Payload.Order.Entity.Notes["order_id"]; v != "" {
		if id, err := utils.ToUint(v); err == nil {
			return id, true
		}
	}
	if receipt := payload.Payload.Order.Entity.Receipt; strings.HasPrefix(receipt, "order_") {
		if id, err := utils.ToUint(strings.TrimPrefix(receipt, "order_")); err == nil {
			return id, true
		}
	}
	return 0, false
}
