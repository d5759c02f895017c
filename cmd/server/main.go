package main

import (
	"log"

	"skbeauty-be/internal/cart"
	"skbeauty-be/internal/config"
	"skbeauty-be/internal/db"
	"skbeauty-be/internal/handler"
	"skbeauty-be/internal/logger"
	"skbeauty-be/internal/metrics"
	"skbeauty-be/internal/notification"
	"skbeauty-be/internal/order"
	"skbeauty-be/internal/payment"
	"skbeauty-be/internal/product"
	"skbeauty-be/internal/router"
	"skbeauty-be/internal/user"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	reg := metrics.NewRegistry()

	productRepo := product.NewRepository(database)
	productSvc := product.NewService(productRepo)

	mailer := notification.NewSMTPMailer(cfg)

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo, cfg.JWTSecret, mailer)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo, productRepo)

	gateway := payment.NewRazorpayGateway(
		cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
	paymentRepo := payment.NewRepository(database)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, userRepo, gateway, paymentRepo, mailer, reg)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	router.Setup(r, cfg, router.Handlers{
		Auth:    handler.NewAuthHandler(userSvc),
		Product: handler.NewProductHandler(productSvc),
		Cart:    handler.NewCartHandler(cartSvc),
		Order:   handler.NewOrderHandler(orderSvc),
		Admin:   handler.NewAdminHandler(orderSvc, reg),
		Payment: handler.NewPaymentHandler(orderSvc, gateway),
		Webhook: handler.NewWebhookHandler(orderSvc, gateway, paymentRepo, reg),
	})

	log.Printf("🚀 API server running at http://localhost:%s/", cfg.AppPort)
	log.Fatal(r.Run(":" + cfg.AppPort))
}
