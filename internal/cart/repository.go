package cart

import (
	"context"
	"database/sql"
	"errors"

	"skbeauty-be/internal/logger"
	"skbeauty-be/internal/product"

	"go.uber.org/zap"
)

type Repository interface {
	GetItems(ctx context.Context, userID uint) ([]CartItem, error)
	CreateItem(ctx context.Context, userID uint, params AddItemParams) (*CartItem, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uint, quantity int) (*CartItem, error)
	DeleteItem(ctx context.Context, userID, itemID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetItems(ctx context.Context, userID uint) ([]CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetItems"),
		zap.Uint("user_id", userID),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.product_id, c.quantity, c.added_at,
		       p.name, p.category, p.price, p.stock
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1 AND c.order_id IS NULL
		ORDER BY c.added_at DESC
	`, userID)
	if err != nil {
		log.Error("failed to query cart items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		item := CartItem{UserID: userID, Product: &product.Product{}}
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.Quantity, &item.AddedAt,
			&item.Product.Name, &item.Product.Category, &item.Product.Price, &item.Product.Stock,
		); err != nil {
			log.Error("failed to scan cart row", zap.Error(err))
			return nil, err
		}
		item.Product.ID = item.ProductID
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) CreateItem(ctx context.Context, userID uint, params AddItemParams) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateItem"),
		zap.Uint("user_id", userID),
		zap.Uint("product_id", params.ProductID),
	)

	log.Debug("start create cart item")

	item := &CartItem{UserID: userID}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, product_id, quantity, added_at
	`, userID, params.ProductID, params.Quantity).Scan(
		&item.ID, &item.ProductID, &item.Quantity, &item.AddedAt,
	)
	if err != nil {
		log.Error("failed to create cart item", zap.Error(err))
		return nil, err
	}

	log.Info("success create cart item", zap.Uint("cart_item_id", item.ID))
	return item, nil
}

// UpdateItemQuantity is scoped by owner: a row belonging to another user is
// indistinguishable from a missing row.
func (r *repository) UpdateItemQuantity(ctx context.Context, userID, itemID uint, quantity int) (*CartItem, error) {
	item := &CartItem{UserID: userID}
	err := r.db.QueryRowContext(ctx, `
		UPDATE cart_items
		SET quantity = $1
		WHERE id = $2 AND user_id = $3 AND order_id IS NULL
		RETURNING id, product_id, quantity, added_at
	`, quantity, itemID, userID).Scan(
		&item.ID, &item.ProductID, &item.Quantity, &item.AddedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) DeleteItem(ctx context.Context, userID, itemID uint) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE id = $1 AND user_id = $2 AND order_id IS NULL
	`, itemID, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}
