package order

import (
	"context"
	"strconv"
	"strings"
	"time"

	"skbeauty-be/internal/logger"
	"skbeauty-be/internal/metrics"
	"skbeauty-be/internal/notification"
	"skbeauty-be/internal/payment"
	"skbeauty-be/internal/user"
	"skbeauty-be/internal/utils"

	"go.uber.org/zap"
)

const historyLimit = 20

type Service interface {
	Create(ctx context.Context, userID uint, lines []OrderLine, discountedTotal *float64) (*Order, error)

	GetUserOrder(ctx context.Context, userID, orderID uint) (*Order, error)
	History(ctx context.Context, userID uint) ([]Order, error)
	CurrentStatus(ctx context.Context, userID uint) (*Order, error)
	ListPending(ctx context.Context) ([]Order, error)

	Decide(ctx context.Context, orderID uint, action, comment string, shippingCharge any) (*Order, error)

	InitiatePayment(ctx context.Context, userID, orderID uint) (*payment.GatewayOrder, float64, error)
	CompletePayment(ctx context.Context, userID, orderID uint, paymentID string) (*Order, error)
	Finalize(ctx context.Context, userID, orderID uint) (*Order, error)

	MarkPaid(ctx context.Context, orderID uint, paymentID string) error
	MarkPaymentFailed(ctx context.Context, orderID uint) error
}

type service struct {
	repo        Repository
	userRepo    user.Repository
	gateway     payment.Gateway
	paymentRepo payment.Repository
	mailer      notification.Mailer
	metrics     *metrics.Registry
}

func NewService(
	repo Repository,
	userRepo user.Repository,
	gateway payment.Gateway,
	paymentRepo payment.Repository,
	mailer notification.Mailer,
	reg *metrics.Registry,
) Service {
	return &service{
		repo:        repo,
		userRepo:    userRepo,
		gateway:     gateway,
		paymentRepo: paymentRepo,
		mailer:      mailer,
		metrics:     reg,
	}
}

func (s *service) Create(ctx context.Context, userID uint, lines []OrderLine, discountedTotal *float64) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
		zap.Uint("user_id", userID),
		zap.Int("line_count", len(lines)),
	)

	if len(lines) == 0 {
		return nil, ErrNoItems
	}

	// Address is synthesized from the buyer's stored profile.
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var parts []string
	if u.Address != "" {
		parts = append(parts, u.Address)
	}
	if u.City != "" {
		parts = append(parts, u.City)
	}
	address := strings.Join(parts, ", ")
	if address == "" {
		address = "Address not provided"
	}

	order, err := s.repo.CreateOrderTx(ctx, userID, address, lines, discountedTotal)
	if err != nil {
		log.Warn("order creation failed", zap.Error(err))
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	log.Info("order created", zap.Uint("order_id", order.ID))
	return order, nil
}

func (s *service) GetUserOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	return s.repo.GetUserOrder(ctx, userID, orderID)
}

func (s *service) History(ctx context.Context, userID uint) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID, historyLimit)
}

func (s *service) CurrentStatus(ctx context.Context, userID uint) (*Order, error) {
	return s.repo.LatestActiveByUser(ctx, userID)
}

func (s *service) ListPending(ctx context.Context) ([]Order, error) {
	return s.repo.ListPending(ctx)
}

// coerceShippingCharge accepts whatever the admin client sent (number,
// numeric string, or nothing) and falls back to zero on parse failure.
func coerceShippingCharge(v any) int {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return int(n)
	case int:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return int(f)
	default:
		return 0
	}
}

func (s *service) Decide(ctx context.Context, orderID uint, action, comment string, shippingCharge any) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Decide"),
		zap.Uint("order_id", orderID),
		zap.String("action", action),
	)

	now := time.Now()

	switch action {
	case "approve":
		if comment == "" {
			comment = "Order approved. Stock will be reserved after payment."
		}
		charge := coerceShippingCharge(shippingCharge)
		if err := s.repo.ApproveTx(ctx, orderID, comment, charge, now); err != nil {
			return nil, err
		}
		s.metrics.OrdersApproved.Inc()

	case "reject":
		if comment == "" {
			comment = "Order rejected."
		}
		if err := s.repo.RejectTx(ctx, orderID, comment, now); err != nil {
			return nil, err
		}
		s.metrics.OrdersRejected.Inc()

	default:
		return nil, ErrInvalidAction
	}

	log.Info("order decision recorded")
	return s.repo.GetByID(ctx, orderID)
}

func (s *service) InitiatePayment(ctx context.Context, userID, orderID uint) (*payment.GatewayOrder, float64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "InitiatePayment"),
		zap.Uint("order_id", orderID),
	)

	order, err := s.repo.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, 0, err
	}
	if order.Status != StatusApproved {
		return nil, 0, ErrOrderNotApproved
	}

	totalAmount := order.Total + float64(order.ShippingCharge)
	amountInPaise := int64(totalAmount * 100)

	// A still-open intent from an earlier attempt is reused instead of
	// creating a second gateway order for the same purchase.
	if existing, lookupErr := s.paymentRepo.GetPaymentByOrder(ctx, order.ID); lookupErr == nil &&
		existing.Status == "created" && existing.Amount == amountInPaise {
		log.Info("reusing open gateway order", zap.String("gateway_order_id", existing.GatewayOrderID))
		return &payment.GatewayOrder{
			ID:       existing.GatewayOrderID,
			Amount:   existing.Amount,
			Currency: existing.Currency,
			Receipt:  utils.OrderReceipt(order.ID),
			Status:   existing.Status,
		}, totalAmount, nil
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, payment.CreateOrderParams{
		Amount:   amountInPaise,
		Currency: "INR",
		Receipt:  utils.OrderReceipt(order.ID),
		Notes: map[string]string{
			"order_id": strconv.FormatUint(uint64(order.ID), 10),
			"user_id":  strconv.FormatUint(uint64(userID), 10),
		},
	})
	if err != nil {
		log.Error("failed to create gateway order", zap.Error(err))
		return nil, 0, err
	}

	p := &payment.Payment{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		Amount:         gatewayOrder.Amount,
		Currency:       gatewayOrder.Currency,
		Status:         gatewayOrder.Status,
	}
	if err := s.paymentRepo.SavePayment(ctx, p); err != nil {
		// The remote intent exists; a bookkeeping failure must not block the
		// buyer from paying.
		log.Error("failed to save payment row", zap.Error(err))
	}

	return gatewayOrder, totalAmount, nil
}

// CompletePayment is the synchronous confirmation path. Stock is re-checked
// and decremented inside one transaction gated on the order still being
// approved.
func (s *service) CompletePayment(ctx context.Context, userID, orderID uint, paymentID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CompletePayment"),
		zap.Uint("order_id", orderID),
	)

	// Ownership check first: another user's order reads as not found.
	if _, err := s.repo.GetUserOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}

	if _, err := s.repo.CompletePaymentTx(ctx, orderID, paymentID, false); err != nil {
		log.Warn("payment completion failed", zap.Error(err))
		return nil, err
	}

	s.metrics.OrdersCompleted.Inc()

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.sendPaymentSuccessEmail(ctx, order)
	return order, nil
}

func (s *service) Finalize(ctx context.Context, userID, orderID uint) (*Order, error) {
	order, err := s.repo.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusApproved {
		return nil, ErrOrderNotApproved
	}

	if err := s.repo.ClearOrderItems(ctx, orderID); err != nil {
		return nil, err
	}

	order.Items = nil
	return order, nil
}

// MarkPaid is the webhook completion path. A replayed event, or a webhook
// arriving after the synchronous path already completed the order, finds the
// order no longer approved and becomes a no-op.
func (s *service) MarkPaid(ctx context.Context, orderID uint, paymentID string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "MarkPaid"),
		zap.Uint("order_id", orderID),
	)

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	_, err = s.repo.CompletePaymentTx(ctx, orderID, paymentID, true)
	if err != nil {
		if err == ErrOrderNotApproved {
			log.Info("order already settled, webhook ignored",
				zap.String("status", string(order.Status)))
			return nil
		}
		return err
	}

	s.metrics.OrdersCompleted.Inc()

	// Items were loaded before the transaction cleared them; reuse them for
	// the notification.
	completed := *order
	completed.Status = StatusCompleted
	completed.PaymentStatus = PaymentSuccess
	completed.TransactionID = paymentID
	s.sendPaymentSuccessEmail(ctx, &completed)

	return nil
}

func (s *service) MarkPaymentFailed(ctx context.Context, orderID uint) error {
	return s.repo.SetPaymentFailed(ctx, orderID)
}

// sendPaymentSuccessEmail is fire and forget: a mail failure never unwinds
// the completed payment.
func (s *service) sendPaymentSuccessEmail(ctx context.Context, o *Order) {
	log := logger.FromCtx(ctx)

	u, err := s.userRepo.FindByID(ctx, o.UserID)
	if err != nil || u.Email == "" {
		log.Warn("skipping payment email, no recipient", zap.Uint("order_id", o.ID))
		return
	}

	summary := notification.OrderSummary{
		OrderID:        o.ID,
		CreatedAt:      o.CreatedAt,
		Address:        o.Address,
		Total:          o.Total,
		ShippingCharge: o.ShippingCharge,
	}
	for _, item := range o.Items {
		summary.Lines = append(summary.Lines, notification.OrderSummaryLine{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	subject, text, html := notification.PaymentSuccessEmail(summary)
	if err := s.mailer.Send(u.Email, subject, text, html); err != nil {
		s.metrics.EmailsFailed.Inc()
		log.Error("payment email failed", zap.Uint("order_id", o.ID), zap.Error(err))
		return
	}
	s.metrics.EmailsSent.Inc()
}
