package router

import (
	"skbeauty-be/internal/config"
	"skbeauty-be/internal/handler"
	"skbeauty-be/internal/logger"
	"skbeauty-be/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every handler group the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Admin   *handler.AdminHandler
	Payment *handler.PaymentHandler
	Webhook *handler.WebhookHandler
}

// Setup mounts all routes. Trailing-slash paths mirror what the storefront
// already calls; gin's RedirectTrailingSlash covers the bare variants.
func Setup(r *gin.Engine, cfg *config.Config, h Handlers) {
	r.Use(logger.RequestIDMiddleware())
	r.Use(logger.LoggingMiddleware())
	r.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	r.Use(middleware.RateLimitMiddleware())

	// Public.
	r.POST("/auth/register/", h.Auth.Register)
	r.POST("/auth/login/", h.Auth.Login)
	r.POST("/auth/password-reset/", h.Auth.RequestPasswordReset)
	r.POST("/auth/password-reset/confirm/", h.Auth.ConfirmPasswordReset)
	r.GET("/products/", h.Product.List)
	r.GET("/products/:id/", h.Product.Get)

	// Gateway callbacks authenticate by signature, not by token.
	r.POST("/webhook/razorpay/", h.Webhook.Razorpay)

	// Authenticated buyer routes.
	authed := r.Group("/", middleware.RequireAuth())
	{
		authed.GET("/profile/", h.Auth.GetProfile)
		authed.PUT("/profile/", h.Auth.UpdateProfile)

		authed.GET("/cart/", h.Cart.List)
		authed.POST("/cart/", h.Cart.Add)
		authed.PUT("/cart/:id/", h.Cart.Update)
		authed.DELETE("/cart/:id/", h.Cart.Delete)

		authed.GET("/orders/", h.Order.List)
		authed.POST("/orders/", h.Order.Create)
		authed.GET("/orders/:id/", h.Order.Get)
		authed.GET("/order-status/", h.Order.Status)
		authed.GET("/order-history/", h.Order.History)
		authed.POST("/checkout/:id/", h.Order.Checkout)

		authed.POST("/orders/:id/razorpay-order/", h.Payment.CreateGatewayOrder)
		authed.POST("/orders/:id/complete-payment/", h.Payment.CompletePayment)
	}

	// Admin routes.
	admin := r.Group("/admin", middleware.RequireAdmin(cfg.AdminUsername))
	{
		admin.GET("/orders/", h.Admin.ListPendingOrders)
		admin.POST("/orders/:id/approve/", h.Admin.DecideOrder)
		admin.POST("/products/", h.Product.Create)
		admin.PUT("/products/:id/", h.Product.Update)
		admin.GET("/metrics/", h.Admin.Metrics)
	}
}
