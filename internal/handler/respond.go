package handler

import (
	"errors"
	"net/http"

	"skbeauty-be/internal/cart"
	"skbeauty-be/internal/logger"
	"skbeauty-be/internal/order"
	"skbeauty-be/internal/payment"
	"skbeauty-be/internal/product"
	"skbeauty-be/internal/user"
	"skbeauty-be/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps domain errors onto HTTP statuses in one place so every
// handler reports the same way: validation 400, not found 404 (including
// other users' resources), gateway trouble 500.
func respondError(c *gin.Context, err error) {
	var stockErr *order.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": stockErr.Error()})
		return
	}

	switch {
	case errors.Is(err, order.ErrNoItems),
		errors.Is(err, order.ErrPendingOrderExists),
		errors.Is(err, order.ErrInvalidAction),
		errors.Is(err, order.ErrNotDecidable),
		errors.Is(err, order.ErrOrderNotApproved),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, product.ErrInvalidStock),
		errors.Is(err, product.ErrInvalidDiscount),
		errors.Is(err, user.ErrEmailExists),
		errors.Is(err, user.ErrUsernameExists),
		errors.Is(err, user.ErrInvalidResetToken),
		errors.Is(err, user.ErrNoEmailAddress),
		errors.Is(err, payment.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password."})

	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, cart.ErrCartItemNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, user.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, payment.ErrGatewayFailure):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment gateway error. Please try again."})

	default:
		logger.FromCtx(c.Request.Context()).Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
	}
}

// mustUserID reads the authenticated user id. Routes calling it sit behind
// RequireAuth, so a miss means a wiring bug, not a client mistake.
func mustUserID(c *gin.Context) uint {
	id, _ := utils.GetUserIDFromContext(c.Request.Context())
	return id
}
