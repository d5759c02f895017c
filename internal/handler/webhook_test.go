package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"skbeauty-be/internal/metrics"
	"skbeauty-be/internal/order"
	"skbeauty-be/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOrderService is a mock implementation of the order service
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, userID uint, lines []order.OrderLine, discountedTotal *float64) (*order.Order, error) {
	args := m.Called(ctx, userID, lines, discountedTotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetUserOrder(ctx context.Context, userID, orderID uint) (*order.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) History(ctx context.Context, userID uint) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) CurrentStatus(ctx context.Context, userID uint) (*order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListPending(ctx context.Context) ([]order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) Decide(ctx context.Context, orderID uint, action, comment string, shippingCharge any) (*order.Order, error) {
	args := m.Called(ctx, orderID, action, comment, shippingCharge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) InitiatePayment(ctx context.Context, userID, orderID uint) (*payment.GatewayOrder, float64, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*payment.GatewayOrder), args.Get(1).(float64), args.Error(2)
}

func (m *MockOrderService) CompletePayment(ctx context.Context, userID, orderID uint, paymentID string) (*order.Order, error) {
	args := m.Called(ctx, userID, orderID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Finalize(ctx context.Context, userID, orderID uint) (*order.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) MarkPaid(ctx context.Context, orderID uint, paymentID string) error {
	args := m.Called(ctx, orderID, paymentID)
	return args.Error(0)
}

func (m *MockOrderService) MarkPaymentFailed(ctx context.Context, orderID uint) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// MockGateway is a mock payment gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, params payment.CreateOrderParams) (*payment.GatewayOrder, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.GatewayOrder), args.Error(1)
}

func (m *MockGateway) VerifyWebhookSignature(body []byte, signature string) error {
	args := m.Called(body, signature)
	return args.Error(0)
}

func (m *MockGateway) KeyID() string {
	args := m.Called()
	return args.String(0)
}

// MockPaymentRepository is a mock payment repository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdatePaymentStatus(ctx context.Context, gatewayOrderID, status string) error {
	args := m.Called(ctx, gatewayOrderID, status)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetPaymentByOrder(ctx context.Context, orderID uint) (*payment.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SaveWebhookEvent(ctx context.Context, eventID, eventType, gatewayOrderID string, payload json.RawMessage) (int64, bool, error) {
	args := m.Called(ctx, eventID, eventType, gatewayOrderID, payload)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockPaymentRepository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	args := m.Called(ctx, webhookID)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	args := m.Called(ctx, webhookID, reason)
	return args.Error(0)
}

type webhookMocks struct {
	orders      *MockOrderService
	gateway     *MockGateway
	paymentRepo *MockPaymentRepository
}

func newWebhookRouter() (*gin.Engine, *webhookMocks) {
	gin.SetMode(gin.TestMode)

	m := &webhookMocks{
		orders:      new(MockOrderService),
		gateway:     new(MockGateway),
		paymentRepo: new(MockPaymentRepository),
	}

	h := NewWebhookHandler(m.orders, m.gateway, m.paymentRepo, metrics.NewRegistry())
	r := gin.New()
	r.POST("/webhook/razorpay/", h.Razorpay)
	return r, m
}

func postWebhook(r *gin.Engine, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/razorpay/", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func capturedPayload(orderID string) []byte {
	return []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_abc123",
					"order_id": "order_rzp1",
					"amount": 100000,
					"status": "captured",
					"notes": {"order_id": "` + orderID + `"}
				}
			}
		}
	}`)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	r, m := newWebhookRouter()
	body := capturedPayload("42")

	m.gateway.On("VerifyWebhookSignature", mock.Anything, "bad-sig").
		Return(payment.ErrInvalidSignature)

	w := postWebhook(r, body, map[string]string{"X-Razorpay-Signature": "bad-sig"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.paymentRepo.AssertNotCalled(t, "SaveWebhookEvent")
	m.orders.AssertNotCalled(t, "MarkPaid")
}

func TestWebhook_PaymentCaptured(t *testing.T) {
	r, m := newWebhookRouter()
	body := capturedPayload("42")

	m.gateway.On("VerifyWebhookSignature", mock.Anything, "good-sig").Return(nil)
	m.paymentRepo.On("SaveWebhookEvent", mock.Anything, "evt-1", "payment.captured", "order_rzp1", mock.Anything).
		Return(int64(11), false, nil)
	m.orders.On("MarkPaid", mock.Anything, uint(42), "pay_abc123").Return(nil)
	m.paymentRepo.On("UpdatePaymentStatus", mock.Anything, "order_rzp1", "captured").Return(nil)
	m.paymentRepo.On("MarkWebhookProcessed", mock.Anything, int64(11)).Return(nil)

	w := postWebhook(r, body, map[string]string{
		"X-Razorpay-Signature": "good-sig",
		"X-Razorpay-Event-Id":  "evt-1",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	m.orders.AssertExpectations(t)
	m.paymentRepo.AssertExpectations(t)
}

func TestWebhook_DuplicateEvent(t *testing.T) {
	r, m := newWebhookRouter()
	body := capturedPayload("42")

	m.gateway.On("VerifyWebhookSignature", mock.Anything, "good-sig").Return(nil)
	m.paymentRepo.On("SaveWebhookEvent", mock.Anything, "evt-1", "payment.captured", "order_rzp1", mock.Anything).
		Return(int64(0), true, nil)

	w := postWebhook(r, body, map[string]string{
		"X-Razorpay-Signature": "good-sig",
		"X-Razorpay-Event-Id":  "evt-1",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	m.orders.AssertNotCalled(t, "MarkPaid")
}

func TestWebhook_TransientFailureIsRetried(t *testing.T) {
	r, m := newWebhookRouter()
	body := capturedPayload("42")

	m.gateway.On("VerifyWebhookSignature", mock.Anything, "good-sig").Return(nil)
	m.paymentRepo.On("SaveWebhookEvent", mock.Anything, "evt-9", "payment.captured", "order_rzp1", mock.Anything).
		Return(int64(21), false, nil)

	// First delivery dies on a transient error: the gateway must get a 5xx so
	// it redelivers, and the event must not count as processed.
	m.orders.On("MarkPaid", mock.Anything, uint(42), "pay_abc123").
		Return(errors.New("db connection reset")).Once()
	m.paymentRepo.On("MarkWebhookFailed", mock.Anything, int64(21), "db connection reset").Return(nil)

	headers := map[string]string{
		"X-Razorpay-Signature": "good-sig",
		"X-Razorpay-Event-Id":  "evt-9",
	}
	w := postWebhook(r, body, headers)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// The redelivery re-claims the unprocessed event and completes the order.
	m.orders.On("MarkPaid", mock.Anything, uint(42), "pay_abc123").Return(nil).Once()
	m.paymentRepo.On("UpdatePaymentStatus", mock.Anything, "order_rzp1", "captured").Return(nil)
	m.paymentRepo.On("MarkWebhookProcessed", mock.Anything, int64(21)).Return(nil)

	w = postWebhook(r, body, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	m.orders.AssertNumberOfCalls(t, "MarkPaid", 2)
	m.paymentRepo.AssertExpectations(t)
}

func TestWebhook_PaymentFailed(t *testing.T) {
	r, m := newWebhookRouter()
	body := []byte(`{
		"event": "payment.failed",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_abc123",
					"order_id": "order_rzp1",
					"status": "failed",
					"notes": {"order_id": "42"}
				}
			}
		}
	}`)

	m.gateway.On("VerifyWebhookSignature", mock.Anything, "good-sig").Return(nil)
	m.paymentRepo.On("SaveWebhookEvent", mock.Anything, "evt-2", "payment.failed", "order_rzp1", mock.Anything).
		Return(int64(12), false, nil)
	m.orders.On("MarkPaymentFailed", mock.Anything, uint(42)).Return(nil)
	m.paymentRepo.On("UpdatePaymentStatus", mock.Anything, "order_rzp1", "failed").Return(nil)
	m.paymentRepo.On("MarkWebhookProcessed", mock.Anything, int64(12)).Return(nil)

	w := postWebhook(r, body, map[string]string{
		"X-Razorpay-Signature": "good-sig",
		"X-Razorpay-Event-Id":  "evt-2",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	m.orders.AssertExpectations(t)
}

func TestWebhook_UnknownOrderAcknowledged(t *testing.T) {
	r, m := newWebhookRouter()
	body := capturedPayload("9999")

	m.gateway.On("VerifyWebhookSignature", mock.Anything, "good-sig").Return(nil)
	m.paymentRepo.On("SaveWebhookEvent", mock.Anything, "evt-3", "payment.captured", "order_rzp1", mock.Anything).
		Return(int64(13), false, nil)
	m.orders.On("MarkPaid", mock.Anything, uint(9999), "pay_abc123").
		Return(order.ErrOrderNotFound)
	m.paymentRepo.On("MarkWebhookProcessed", mock.Anything, int64(13)).Return(nil)

	w := postWebhook(r, body, map[string]string{
		"X-Razorpay-Signature": "good-sig",
		"X-Razorpay-Event-Id":  "evt-3",
	})

	// The gateway must not retry: unknown orders are logged and acknowledged.
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_UnhandledEventAcknowledged(t *testing.T) {
	r, m := newWebhookRouter()
	body := []byte(`{"event": "payment.authorized", "payload": {"payment": {"entity": {"id": "pay_abc123", "order_id": "order_rzp1"}}}}`)

	m.gateway.On("VerifyWebhookSignature", mock.Anything, "good-sig").Return(nil)
	m.paymentRepo.On("SaveWebhookEvent", mock.Anything, mock.Anything, "payment.authorized", "order_rzp1", mock.Anything).
		Return(int64(14), false, nil)
	m.paymentRepo.On("MarkWebhookProcessed", mock.Anything, int64(14)).Return(nil)

	w := postWebhook(r, body, map[string]string{"X-Razorpay-Signature": "good-sig"})

	assert.Equal(t, http.StatusOK, w.Code)
	m.orders.AssertNotCalled(t, "MarkPaid")
	m.orders.AssertNotCalled(t, "MarkPaymentFailed")
}
