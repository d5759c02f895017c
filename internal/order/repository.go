package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"skbeauty-be/internal/logger"
	"skbeauty-be/internal/product"

	"go.uber.org/zap"
)

type Repository interface {
	CreateOrderTx(ctx context.Context, userID uint, address string, lines []OrderLine, discountedTotal *float64) (*Order, error)

	GetByID(ctx context.Context, orderID uint) (*Order, error)
	GetUserOrder(ctx context.Context, userID, orderID uint) (*Order, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]Order, error)
	ListPending(ctx context.Context) ([]Order, error)
	LatestActiveByUser(ctx context.Context, userID uint) (*Order, error)

	ApproveTx(ctx context.Context, orderID uint, comment string, shippingCharge int, decisionTime time.Time) error
	RejectTx(ctx context.Context, orderID uint, comment string, decisionTime time.Time) error

	// CompletePaymentTx performs the final check-then-mutate sequence in one
	// transaction: re-check stock per line, decrement, mark the order
	// completed. The transition is gated on the order still being approved,
	// which makes the synchronous and webhook paths converge without a
	// double decrement.
	CompletePaymentTx(ctx context.Context, orderID uint, transactionID string, clearItems bool) (OrderStatus, error)

	SetPaymentFailed(ctx context.Context, orderID uint) error
	ClearOrderItems(ctx context.Context, orderID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, user_id, total, shipping_charge, status, payment_status, transaction_id, address, admin_comment, decision_time, created_at, updated_at`

func scanOrder(s interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := s.Scan(
		&o.ID, &o.UserID, &o.Total, &o.ShippingCharge,
		&o.Status, &o.PaymentStatus, &o.TransactionID,
		&o.Address, &o.AdminComment, &o.DecisionTime,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) CreateOrderTx(
	ctx context.Context,
	userID uint,
	address string,
	lines []OrderLine,
	discountedTotal *float64,
) (*Order, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
		zap.Uint("user_id", userID),
		zap.Int("line_count", len(lines)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// 1. A user may have at most one pending order.
	var pendingExists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM orders WHERE user_id = $1 AND status = 'pending')
	`, userID).Scan(&pendingExists)
	if err != nil {
		return nil, err
	}
	if pendingExists {
		return nil, ErrPendingOrderExists
	}

	// 2. Resolve each product and accumulate the computed total.
	var total float64
	items := make([]OrderItem, 0, len(lines))
	for _, line := range lines {
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}

		var item OrderItem
		err := tx.QueryRowContext(ctx, `
			SELECT id, name, price FROM products WHERE id = $1
		`, line.ProductID).Scan(&item.ProductID, &item.ProductName, &item.Price)
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("product not found", zap.Uint("product_id", line.ProductID))
			return nil, product.ErrProductNotFound
		}
		if err != nil {
			return nil, err
		}

		item.Quantity = qty
		total += item.Price * float64(qty)
		items = append(items, item)
	}

	// 3. The client-supplied discounted total wins when present.
	finalTotal := total
	if discountedTotal != nil {
		finalTotal = *discountedTotal
	}

	// 4. Insert the order.
	order := &Order{
		UserID:        userID,
		Total:         finalTotal,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Address:       address,
		Items:         items,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, total, status, payment_status, address)
		VALUES ($1, $2, 'pending', 'pending', $3)
		RETURNING id, created_at, updated_at
	`, userID, finalTotal, address).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return nil, err
	}

	// 5. Insert snapshot rows owned by the order, separate from the live cart.
	for i := range items {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO cart_items (user_id, product_id, quantity, order_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, userID, items[i].ProductID, items[i].Quantity, order.ID).Scan(&items[i].ID)
		if err != nil {
			log.Error("failed to insert order item",
				zap.Uint("product_id", items[i].ProductID),
				zap.Error(err),
			)
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return nil, err
	}
	committed = true

	log.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.Float64("total", finalTotal),
	)

	return order, nil
}

func (r *repository) loadItems(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, orderID uint) ([]OrderItem, error) {

	rows, err := q.QueryContext(ctx, `
		SELECT c.id, c.product_id, p.name, p.price, p.stock, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.order_id = $1
		ORDER BY c.id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.ProductName,
			&item.Price, &item.Stock, &item.Quantity,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, orderID uint) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	o.Items, err = r.loadItems(ctx, r.db, orderID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetUserOrder scopes the lookup to the owner; another user's order reads as
// not found.
func (r *repository) GetUserOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	o.Items, err = r.loadItems(ctx, r.db, orderID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint, limit int) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByUser"),
		zap.Uint("user_id", userID),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items, err = r.loadItems(ctx, r.db, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}

	log.Info("list orders success", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) ListPending(ctx context.Context) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.user_id, o.total, o.shipping_charge, o.status, o.payment_status,
		       o.transaction_id, o.address, o.admin_comment, o.decision_time,
		       o.created_at, o.updated_at,
		       u.username, u.phone
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.status = 'pending'
		ORDER BY o.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Total, &o.ShippingCharge,
			&o.Status, &o.PaymentStatus, &o.TransactionID,
			&o.Address, &o.AdminComment, &o.DecisionTime,
			&o.CreatedAt, &o.UpdatedAt,
			&o.Username, &o.UserPhone,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		var err error
		orders[i].Items, err = r.loadItems(ctx, r.db, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// LatestActiveByUser returns the newest order that has not completed yet.
func (r *repository) LatestActiveByUser(ctx context.Context, userID uint) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 AND status IN ('pending', 'approved', 'rejected')
		ORDER BY created_at DESC
		LIMIT 1
	`, userID)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	o.Items, err = r.loadItems(ctx, r.db, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) ApproveTx(ctx context.Context, orderID uint, comment string, shippingCharge int, decisionTime time.Time) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ApproveTx"),
		zap.Uint("order_id", orderID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// 1. Lock the order row and verify it is still pending.
	var status OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if status != StatusPending {
		return ErrNotDecidable
	}

	// 2. Re-validate stock per snapshot line; nothing is decremented yet.
	rows, err := tx.QueryContext(ctx, `
		SELECT p.name, p.stock, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.order_id = $1
	`, orderID)
	if err != nil {
		return err
	}

	var short *InsufficientStockError
	for rows.Next() {
		var name string
		var stock, qty int
		if err := rows.Scan(&name, &stock, &qty); err != nil {
			rows.Close()
			return err
		}
		if stock < qty && short == nil {
			short = &InsufficientStockError{ProductName: name, Available: stock, Requested: qty}
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if short != nil {
		log.Warn("approval blocked by stock",
			zap.String("product", short.ProductName),
			zap.Int("available", short.Available),
			zap.Int("requested", short.Requested),
		)
		return short
	}

	// 3. Transition.
	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'approved', admin_comment = $1, shipping_charge = $2,
		    decision_time = $3, updated_at = NOW()
		WHERE id = $4
	`, comment, shippingCharge, decisionTime, orderID)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	log.Info("order approved", zap.Int("shipping_charge", shippingCharge))
	return nil
}

func (r *repository) RejectTx(ctx context.Context, orderID uint, comment string, decisionTime time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if status != StatusPending {
		return ErrNotDecidable
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'rejected', admin_comment = $1, decision_time = $2, updated_at = NOW()
		WHERE id = $3
	`, comment, decisionTime, orderID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) CompletePaymentTx(ctx context.Context, orderID uint, transactionID string, clearItems bool) (OrderStatus, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CompletePaymentTx"),
		zap.Uint("order_id", orderID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// 1. Lock the order row. The approved gate here is what makes concurrent
	// completion attempts (synchronous call vs webhook) converge on a single
	// stock decrement.
	var status OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	if status != StatusApproved {
		return status, ErrOrderNotApproved
	}

	// 2. Load snapshot lines with current stock, locking the product rows.
	rows, err := tx.QueryContext(ctx, `
		SELECT p.id, p.name, p.stock, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.order_id = $1
		FOR UPDATE OF p
	`, orderID)
	if err != nil {
		return status, err
	}

	type line struct {
		productID uint
		qty       int
	}
	var lines []line
	var short *InsufficientStockError
	for rows.Next() {
		var name string
		var l line
		var stock int
		if err := rows.Scan(&l.productID, &name, &stock, &l.qty); err != nil {
			rows.Close()
			return status, err
		}
		if stock < l.qty && short == nil {
			short = &InsufficientStockError{ProductName: name, Available: stock, Requested: l.qty}
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return status, err
	}
	if short != nil {
		log.Warn("payment completion blocked by stock",
			zap.String("product", short.ProductName),
		)
		return status, short
	}

	// 3. Decrement stock per line, still guarded at the row level.
	for _, l := range lines {
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1
		`, l.qty, l.productID)
		if err != nil {
			return status, err
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return status, &InsufficientStockError{Requested: l.qty}
		}
	}

	// 4. Complete the order.
	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'completed', payment_status = 'success',
		    transaction_id = $1, updated_at = NOW()
		WHERE id = $2
	`, transactionID, orderID)
	if err != nil {
		return status, err
	}

	// 5. The webhook flow also clears the order-scoped snapshot rows.
	if clearItems {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE order_id = $1`, orderID); err != nil {
			return status, err
		}
	}

	if err := tx.Commit(); err != nil {
		return status, err
	}
	committed = true

	log.Info("order completed", zap.String("transaction_id", transactionID))
	return StatusCompleted, nil
}

func (r *repository) SetPaymentFailed(ctx context.Context, orderID uint) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = 'failed', updated_at = NOW() WHERE id = $1
	`, orderID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) ClearOrderItems(ctx context.Context, orderID uint) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE order_id = $1`, orderID)
	return err
}
