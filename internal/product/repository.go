package product

import (
	"context"
	"database/sql"
	"errors"

	"skbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetList(ctx context.Context, category *string) ([]Product, error)
	GetByID(ctx context.Context, id uint) (*Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Update(ctx context.Context, id uint, p Product) (*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `id, name, category, description, image_url, stock, price, original_price, discount_percent, discounted_price`

func (r *repository) GetList(ctx context.Context, category *string) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetList"),
	)

	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}

	if category != nil && *category != "" {
		query += ` WHERE category = $1`
		args = append(args, *category)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Category, &p.Description, &p.ImageURL,
			&p.Stock, &p.Price, &p.OriginalPrice, &p.DiscountPercent, &p.DiscountedPrice,
		); err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	).Scan(
		&p.ID, &p.Name, &p.Category, &p.Description, &p.ImageURL,
		&p.Stock, &p.Price, &p.OriginalPrice, &p.DiscountPercent, &p.DiscountedPrice,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p Product) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("name", p.Name),
	)

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, category, description, image_url, stock, price, original_price, discount_percent, discounted_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+productColumns,
		p.Name, p.Category, p.Description, p.ImageURL,
		p.Stock, p.Price, p.OriginalPrice, p.DiscountPercent, p.DiscountedPrice,
	)

	var created Product
	if err := row.Scan(
		&created.ID, &created.Name, &created.Category, &created.Description, &created.ImageURL,
		&created.Stock, &created.Price, &created.OriginalPrice, &created.DiscountPercent, &created.DiscountedPrice,
	); err != nil {
		log.Error("failed to insert product", zap.Error(err))
		return nil, err
	}

	log.Info("product created", zap.Uint("product_id", created.ID))
	return &created, nil
}

func (r *repository) Update(ctx context.Context, id uint, p Product) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $1, category = $2, description = $3, image_url = $4,
		    stock = $5, price = $6, original_price = $7, discount_percent = $8, discounted_price = $9
		WHERE id = $10
		RETURNING `+productColumns,
		p.Name, p.Category, p.Description, p.ImageURL,
		p.Stock, p.Price, p.OriginalPrice, p.DiscountPercent, p.DiscountedPrice,
		id,
	)

	var updated Product
	err := row.Scan(
		&updated.ID, &updated.Name, &updated.Category, &updated.Description, &updated.ImageURL,
		&updated.Stock, &updated.Price, &updated.OriginalPrice, &updated.DiscountPercent, &updated.DiscountedPrice,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
