package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"skbeauty-be/internal/metrics"
	"skbeauty-be/internal/payment"
	"skbeauty-be/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrderTx(ctx context.Context, userID uint, address string, lines []OrderLine, discountedTotal *float64) (*Order, error) {
	args := m.Called(ctx, userID, address, lines, discountedTotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, orderID uint) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetUserOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]Order, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) ListPending(ctx context.Context) ([]Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) LatestActiveByUser(ctx context.Context, userID uint) (*Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ApproveTx(ctx context.Context, orderID uint, comment string, shippingCharge int, decisionTime time.Time) error {
	args := m.Called(ctx, orderID, comment, shippingCharge, decisionTime)
	return args.Error(0)
}

func (m *MockRepository) RejectTx(ctx context.Context, orderID uint, comment string, decisionTime time.Time) error {
	args := m.Called(ctx, orderID, comment, decisionTime)
	return args.Error(0)
}

func (m *MockRepository) CompletePaymentTx(ctx context.Context, orderID uint, transactionID string, clearItems bool) (OrderStatus, error) {
	args := m.Called(ctx, orderID, transactionID, clearItems)
	return args.Get(0).(OrderStatus), args.Error(1)
}

func (m *MockRepository) SetPaymentFailed(ctx context.Context, orderID uint) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockRepository) ClearOrderItems(ctx context.Context, orderID uint) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// MockUserRepository is a mock for the user repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u user.User) (user.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (user.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (user.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (user.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uint, params user.UpdateProfileParams) (user.User, error) {
	args := m.Called(ctx, id, params)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	args := m.Called(ctx, id, hashedPassword)
	return args.Error(0)
}

// MockGateway is a mock for the payment gateway
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

// MockPaymentRepository is a mock for the payment repository
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

// MockMailer is a mock mail sender
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to, subject, textBody, htmlBody string) error {
	args := m.Called(to, subject, textBody, htmlBody)
	return args.Error(0)
}

type serviceMocks struct {
	repo        *MockRepository
	userRepo    *MockUserRepository
	gateway     *MockGateway
	paymentRepo *MockPaymentRepository
	mailer      *MockMailer
}

func newTestService() (Service, *serviceMocks) {
	m := &serviceMocks{
		repo:        new(MockRepository),
		userRepo:    new(MockUserRepository),
		gateway:     new(MockGateway),
		paymentRepo: new(MockPaymentRepository),
		mailer:      new(MockMailer),
	}
	svc := NewService(m.repo, m.userRepo, m.gateway, m.paymentRepo, m.mailer, metrics.NewRegistry())
	return svc, m
}

func TestService_Create(t *testing.T) {
	lines := []OrderLine{{ProductID: 3, Quantity: 2}}

	t.Run("NoItems", func(t *testing.T) {
		svc, m := newTestService()

		_, err := svc.Create(context.Background(), 1, nil, nil)
		assert.ErrorIs(t, err, ErrNoItems)
		m.repo.AssertNotCalled(t, "CreateOrderTx")
	})

	t.Run("AddressFromProfile", func(t *testing.T) {
		svc, m := newTestService()
		m.userRepo.On("FindByID", mock.Anything, uint(1)).
			Return(user.User{ID: 1, Address: "12 MG Road", City: "Pune"}, nil)
		m.repo.On("CreateOrderTx", mock.Anything, uint(1), "12 MG Road, Pune", lines, (*float64)(nil)).
			Return(&Order{ID: 10, Status: StatusPending}, nil)

		o, err := svc.Create(context.Background(), 1, lines, nil)
		require.NoError(t, err)
		assert.Equal(t, uint(10), o.ID)
		m.repo.AssertExpectations(t)
	})

	t.Run("AddressFallback", func(t *testing.T) {
		svc, m := newTestService()
		m.userRepo.On("FindByID", mock.Anything, uint(1)).
			Return(user.User{ID: 1}, nil)
		m.repo.On("CreateOrderTx", mock.Anything, uint(1), "Address not provided", lines, (*float64)(nil)).
			Return(&Order{ID: 10}, nil)

		_, err := svc.Create(context.Background(), 1, lines, nil)
		assert.NoError(t, err)
		m.repo.AssertExpectations(t)
	})

	t.Run("PendingOrderExists", func(t *testing.T) {
		svc, m := newTestService()
		m.userRepo.On("FindByID", mock.Anything, uint(1)).
			Return(user.User{ID: 1, Address: "12 MG Road"}, nil)
		m.repo.On("CreateOrderTx", mock.Anything, uint(1), "12 MG Road", lines, (*float64)(nil)).
			Return(nil, ErrPendingOrderExists)

		_, err := svc.Create(context.Background(), 1, lines, nil)
		assert.ErrorIs(t, err, ErrPendingOrderExists)
	})
}

func TestCoerceShippingCharge(t *testing.T) {
	assert.Equal(t, 0, coerceShippingCharge(nil))
	assert.Equal(t, 50, coerceShippingCharge(float64(50)))
	assert.Equal(t, 50, coerceShippingCharge("50"))
	assert.Equal(t, 49, coerceShippingCharge("49.9"))
	assert.Equal(t, 0, coerceShippingCharge("free"))
	assert.Equal(t, 0, coerceShippingCharge([]string{"50"}))
}

func TestService_Decide(t *testing.T) {
	t.Run("InvalidAction", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Decide(context.Background(), 10, "cancel", "", nil)
		assert.ErrorIs(t, err, ErrInvalidAction)
	})

	t.Run("ApproveDefaults", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("ApproveTx", mock.Anything, uint(10),
			"Order approved. Stock will be reserved after payment.", 50, mock.AnythingOfType("time.Time")).
			Return(nil)
		m.repo.On("GetByID", mock.Anything, uint(10)).
			Return(&Order{ID: 10, Status: StatusApproved, ShippingCharge: 50}, nil)

		o, err := svc.Decide(context.Background(), 10, "approve", "", "50")
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, o.Status)
		m.repo.AssertExpectations(t)
	})

	t.Run("RejectDefaults", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("RejectTx", mock.Anything, uint(10), "Order rejected.", mock.AnythingOfType("time.Time")).
			Return(nil)
		m.repo.On("GetByID", mock.Anything, uint(10)).
			Return(&Order{ID: 10, Status: StatusRejected}, nil)

		o, err := svc.Decide(context.Background(), 10, "reject", "", nil)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, o.Status)
	})

	t.Run("ApproveInsufficientStock", func(t *testing.T) {
		svc, m := newTestService()
		stockErr := &InsufficientStockError{ProductName: "Face Serum", Available: 1, Requested: 2}
		m.repo.On("ApproveTx", mock.Anything, uint(10), mock.Anything, 0, mock.AnythingOfType("time.Time")).
			Return(stockErr)

		_, err := svc.Decide(context.Background(), 10, "approve", "", nil)

		var got *InsufficientStockError
		assert.ErrorAs(t, err, &got)
	})
}

func TestService_InitiatePayment(t *testing.T) {
	approved := &Order{ID: 10, UserID: 1, Total: 949, ShippingCharge: 51, Status: StatusApproved}

	t.Run("Success", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetUserOrder", mock.Anything, uint(1), uint(10)).Return(approved, nil)
		m.gateway.On("CreateOrder", mock.Anything, payment.CreateOrderParams{
			Amount:   100000,
			Currency: "INR",
			Receipt:  "order_10",
			Notes:    map[string]string{"order_id": "10", "user_id": "1"},
		}).Return(&payment.GatewayOrder{
			ID: "order_rzp1", Amount: 100000, Currency: "INR", Status: "created",
		}, nil)
		m.paymentRepo.On("GetPaymentByOrder", mock.Anything, uint(10)).Return(nil, sql.ErrNoRows)
		m.paymentRepo.On("SavePayment", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)

		gatewayOrder, total, err := svc.InitiatePayment(context.Background(), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, "order_rzp1", gatewayOrder.ID)
		assert.Equal(t, 1000.0, total)
		m.gateway.AssertExpectations(t)
		m.paymentRepo.AssertExpectations(t)
	})

	t.Run("NotApproved", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetUserOrder", mock.Anything, uint(1), uint(10)).
			Return(&Order{ID: 10, Status: StatusPending}, nil)

		_, _, err := svc.InitiatePayment(context.Background(), 1, 10)
		assert.ErrorIs(t, err, ErrOrderNotApproved)
		m.gateway.AssertNotCalled(t, "CreateOrder")
	})

	t.Run("GatewayDown", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetUserOrder", mock.Anything, uint(1), uint(10)).Return(approved, nil)
		m.paymentRepo.On("GetPaymentByOrder", mock.Anything, uint(10)).Return(nil, sql.ErrNoRows)
		m.gateway.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, payment.ErrGatewayFailure)

		_, _, err := svc.InitiatePayment(context.Background(), 1, 10)
		assert.ErrorIs(t, err, payment.ErrGatewayFailure)
		m.paymentRepo.AssertNotCalled(t, "SavePayment")
	})

	t.Run("ReusesOpenGatewayOrder", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetUserOrder", mock.Anything, uint(1), uint(10)).Return(approved, nil)
		m.paymentRepo.On("GetPaymentByOrder", mock.Anything, uint(10)).Return(&payment.Payment{
			OrderID: 10, GatewayOrderID: "order_rzp1", Amount: 100000,
			Currency: "INR", Status: "created",
		}, nil)

		gatewayOrder, total, err := svc.InitiatePayment(context.Background(), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, "order_rzp1", gatewayOrder.ID)
		assert.Equal(t, 1000.0, total)
		m.gateway.AssertNotCalled(t, "CreateOrder")
		m.paymentRepo.AssertNotCalled(t, "SavePayment")
	})

	t.Run("StaleIntentNotReused", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetUserOrder", mock.Anything, uint(1), uint(10)).Return(approved, nil)
		// An earlier intent over a different amount cannot be charged; a
		// fresh gateway order is created.
		m.paymentRepo.On("GetPaymentByOrder", mock.Anything, uint(10)).Return(&payment.Payment{
			OrderID: 10, GatewayOrderID: "order_rzp0", Amount: 50000,
			Currency: "INR", Status: "created",
		}, nil)
		m.gateway.On("CreateOrder", mock.Anything, mock.Anything).
			Return(&payment.GatewayOrder{
				ID: "order_rzp2", Amount: 100000, Currency: "INR", Status: "created",
			}, nil)
		m.paymentRepo.On("SavePayment", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)

		gatewayOrder, _, err := svc.InitiatePayment(context.Background(), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, "order_rzp2", gatewayOrder.ID)
	})
}

func TestService_CompletePayment(t *testing.T) {
	completed := &Order{
		ID: 10, UserID: 1, Total: 949, ShippingCharge: 51,
		Status: StatusCompleted, PaymentStatus: PaymentSuccess,
		Items: []OrderItem{{ProductID: 3, ProductName: "Face Serum", Price: 499, Quantity: 2}},
	}

	t.Run("Success", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetUserOrder", mock.Anything, uint(1), uint(10)).
			Return(&Order{ID: 10, UserID: 1, Status: StatusApproved}, nil)
		m.repo.On("CompletePaymentTx", mock.Anything, uint(10), "pay_abc123", false).
			Return(StatusCompleted, nil)
		m.repo.On("GetByID", mock.Anything, uint(10)).Return(completed, nil)
		m.userRepo.On("FindByID", mock.Anything, uint(1)).
			Return(user.User{ID: 1, Email: "buyer@example.com"}, nil)
		m.mailer.On("Send", "buyer@example.com", mock.Anything, mock.Anything, mock.Anything).
			Return(nil)

		o, err := svc.CompletePayment(context.Background(), 1, 10, "pay_abc123")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, o.Status)
		m.mailer.AssertExpectations(t)
	})

	t.Run("OtherUsersOrder", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetUserOrder", mock.Anything, uint(2), uint(10)).
			Return(nil, ErrOrderNotFound)

		_, err := svc.CompletePayment(context.Background(), 2, 10, "pay_abc123")
		assert.ErrorIs(t, err, ErrOrderNotFound)
		m.repo.AssertNotCalled(t, "CompletePaymentTx")
	})

	t.Run("MailFailureDoesNotFailRequest", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetUserOrder", mock.Anything, uint(1), uint(10)).
			Return(&Order{ID: 10, UserID: 1, Status: StatusApproved}, nil)
		m.repo.On("CompletePaymentTx", mock.Anything, uint(10), "pay_abc123", false).
			Return(StatusCompleted, nil)
		m.repo.On("GetByID", mock.Anything, uint(10)).Return(completed, nil)
		m.userRepo.On("FindByID", mock.Anything, uint(1)).
			Return(user.User{ID: 1, Email: "buyer@example.com"}, nil)
		m.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("smtp down"))

		_, err := svc.CompletePayment(context.Background(), 1, 10, "pay_abc123")
		assert.NoError(t, err)
	})
}

func TestService_MarkPaid(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetByID", mock.Anything, uint(10)).
			Return(&Order{ID: 10, UserID: 1, Status: StatusApproved}, nil)
		m.repo.On("CompletePaymentTx", mock.Anything, uint(10), "pay_abc123", true).
			Return(StatusCompleted, nil)
		m.userRepo.On("FindByID", mock.Anything, uint(1)).
			Return(user.User{ID: 1, Email: "buyer@example.com"}, nil)
		m.mailer.On("Send", "buyer@example.com", mock.Anything, mock.Anything, mock.Anything).
			Return(nil)

		err := svc.MarkPaid(context.Background(), 10, "pay_abc123")
		assert.NoError(t, err)
		m.mailer.AssertExpectations(t)
	})

	t.Run("AlreadySettledIsNoOp", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetByID", mock.Anything, uint(10)).
			Return(&Order{ID: 10, UserID: 1, Status: StatusCompleted}, nil)
		m.repo.On("CompletePaymentTx", mock.Anything, uint(10), "pay_abc123", true).
			Return(StatusCompleted, ErrOrderNotApproved)

		err := svc.MarkPaid(context.Background(), 10, "pay_abc123")
		assert.NoError(t, err)
		m.mailer.AssertNotCalled(t, "Send")
	})

	t.Run("UnknownOrder", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetByID", mock.Anything, uint(99)).
			Return(nil, ErrOrderNotFound)

		err := svc.MarkPaid(context.Background(), 99, "pay_abc123")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_Finalize(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetUserOrder", mock.Anything, uint(1), uint(10)).
			Return(&Order{ID: 10, UserID: 1, Total: 949, ShippingCharge: 51, Status: StatusApproved}, nil)
		m.repo.On("ClearOrderItems", mock.Anything, uint(10)).Return(nil)

		o, err := svc.Finalize(context.Background(), 1, 10)
		require.NoError(t, err)
		assert.Empty(t, o.Items)
		m.repo.AssertExpectations(t)
	})

	t.Run("NotApproved", func(t *testing.T) {
		svc, m := newTestService()
		m.repo.On("GetUserOrder", mock.Anything, uint(1), uint(10)).
			Return(&Order{ID: 10, Status: StatusPending}, nil)

		_, err := svc.Finalize(context.Background(), 1, 10)
		assert.ErrorIs(t, err, ErrOrderNotApproved)
		m.repo.AssertNotCalled(t, "ClearOrderItems")
	})
}
