package cart

import (
	"context"

	"skbeauty-be/internal/logger"
	"skbeauty-be/internal/product"

	"go.uber.org/zap"
)

type Service interface {
	GetItems(ctx context.Context, userID uint) ([]CartItem, error)
	AddItem(ctx context.Context, userID uint, params AddItemParams) (*CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID uint, params UpdateItemParams) (*CartItem, error)
	DeleteItem(ctx context.Context, userID, itemID uint) error
}

type service struct {
	repo        Repository
	productRepo product.Repository
}

func NewService(repo Repository, productRepo product.Repository) Service {
	return &service{repo: repo, productRepo: productRepo}
}

func (s *service) GetItems(ctx context.Context, userID uint) ([]CartItem, error) {
	return s.repo.GetItems(ctx, userID)
}

func (s *service) AddItem(ctx context.Context, userID uint, params AddItemParams) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddItem"),
		zap.Uint("user_id", userID),
		zap.Uint("product_id", params.ProductID),
	)

	if params.Quantity == 0 {
		params.Quantity = 1
	}
	if params.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	// The product must exist before a row can reference it.
	if _, err := s.productRepo.GetByID(ctx, params.ProductID); err != nil {
		log.Warn("product lookup failed", zap.Error(err))
		return nil, err
	}

	return s.repo.CreateItem(ctx, userID, params)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uint, params UpdateItemParams) (*CartItem, error) {
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.repo.UpdateItemQuantity(ctx, userID, itemID, params.Quantity)
}

func (s *service) DeleteItem(ctx context.Context, userID, itemID uint) error {
	return s.repo.DeleteItem(ctx, userID, itemID)
}
