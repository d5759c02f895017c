package product

import (
	"context"

	"skbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	GetList(ctx context.Context, category *string) ([]Product, error)
	GetByID(ctx context.Context, id uint) (*Product, error)
	Create(ctx context.Context, params SaveProductParams) (*Product, error)
	Update(ctx context.Context, id uint, params SaveProductParams) (*Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetList(ctx context.Context, category *string) ([]Product, error) {
	return s.repo.GetList(ctx, category)
}

func (s *service) GetByID(ctx context.Context, id uint) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func fromParams(params SaveProductParams) (Product, error) {
	if params.Stock < 0 {
		return Product{}, ErrInvalidStock
	}
	if params.DiscountPercent < 0 || params.DiscountPercent > 100 {
		return Product{}, ErrInvalidDiscount
	}

	p := Product{
		Name:            params.Name,
		Category:        params.Category,
		Description:     params.Description,
		ImageURL:        params.ImageURL,
		Stock:           params.Stock,
		Price:           params.Price,
		OriginalPrice:   params.OriginalPrice,
		DiscountPercent: params.DiscountPercent,
	}
	p.ApplyDiscount()
	return p, nil
}

func (s *service) Create(ctx context.Context, params SaveProductParams) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
	)

	p, err := fromParams(params)
	if err != nil {
		log.Warn("invalid product input", zap.Error(err))
		return nil, err
	}

	return s.repo.Create(ctx, p)
}

func (s *service) Update(ctx context.Context, id uint, params SaveProductParams) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Update"),
		zap.Uint("product_id", id),
	)

	p, err := fromParams(params)
	if err != nil {
		log.Warn("invalid product input", zap.Error(err))
		return nil, err
	}

	return s.repo.Update(ctx, id, p)
}
