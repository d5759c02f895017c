package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

type Repository interface {
	SavePayment(ctx context.Context, p *Payment) error
	UpdatePaymentStatus(ctx context.Context, gatewayOrderID, status string) error
	GetPaymentByOrder(ctx context.Context, orderID uint) (*Payment, error)

	// SaveWebhookEvent records an incoming webhook delivery. A replay of an
	// already processed event id is reported as a duplicate; a replay of an
	// event whose processing failed re-claims the existing row so the
	// delivery can be dispatched again.
	SaveWebhookEvent(
		ctx context.Context,
		eventID string,
		eventType string,
		gatewayOrderID string,
		payload json.RawMessage,
	) (webhookID int64, isDuplicate bool, err error)

	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SavePayment(ctx context.Context, p *Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (order_id, gateway_order_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5)
	`, p.OrderID, p.GatewayOrderID, p.Amount, p.Currency, p.Status)
	return err
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, gatewayOrderID, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $1, updated_at = NOW() WHERE gateway_order_id = $2
	`, status, gatewayOrderID)
	return err
}

func (r *repository) GetPaymentByOrder(ctx context.Context, orderID uint) (*Payment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, gateway_order_id, amount, currency, status, created_at, updated_at
		FROM payments WHERE order_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, orderID)

	var p Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.GatewayOrderID, &p.Amount,
		&p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) SaveWebhookEvent(
	ctx context.Context,
	eventID string,
	eventType string,
	gatewayOrderID string,
	payload json.RawMessage,
) (int64, bool, error) {

	// The conditional upsert only touches rows that never reached
	// processed_at, so a gateway redelivery after a failed dispatch gets the
	// row back (with the stale error cleared) instead of a duplicate verdict.
	const q = `
	INSERT INTO payment_webhooks (event_id, event_type, gateway_order_id, payload)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (event_id)
	DO UPDATE SET process_error = NULL
	WHERE payment_webhooks.processed_at IS NULL
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(ctx, q, eventID, eventType, gatewayOrderID, payload).Scan(&id)
	if err != nil {
		// Already processed → idempotent success
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		return 0, false, err
	}

	return id, false, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now()
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, reason)
	return err
}
