package cart

import (
	"context"
	"testing"

	"skbeauty-be/internal/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetItems(ctx context.Context, userID uint) ([]CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CartItem), args.Error(1)
}

func (m *MockRepository) CreateItem(ctx context.Context, userID uint, params AddItemParams) (*CartItem, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CartItem), args.Error(1)
}

func (m *MockRepository) UpdateItemQuantity(ctx context.Context, userID, itemID uint, quantity int) (*CartItem, error) {
	args := m.Called(ctx, userID, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CartItem), args.Error(1)
}

func (m *MockRepository) DeleteItem(ctx context.Context, userID, itemID uint) error {
	args := m.Called(ctx, userID, itemID)
	return args.Error(0)
}

// MockProductRepository is a mock for the product repository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetList(ctx context.Context, category *string) ([]product.Product, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uint) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p product.Product) (*product.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, id uint, p product.Product) (*product.Product, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func TestService_AddItem(t *testing.T) {
	t.Run("DefaultsQuantityToOne", func(t *testing.T) {
		repo := new(MockRepository)
		productRepo := new(MockProductRepository)
		svc := NewService(repo, productRepo)

		productRepo.On("GetByID", mock.Anything, uint(3)).
			Return(&product.Product{ID: 3, Name: "Face Serum"}, nil)
		repo.On("CreateItem", mock.Anything, uint(1), AddItemParams{ProductID: 3, Quantity: 1}).
			Return(&CartItem{ID: 5, ProductID: 3, Quantity: 1}, nil)

		item, err := svc.AddItem(context.Background(), 1, AddItemParams{ProductID: 3})
		require.NoError(t, err)
		assert.Equal(t, 1, item.Quantity)
		repo.AssertExpectations(t)
	})

	t.Run("NegativeQuantity", func(t *testing.T) {
		repo := new(MockRepository)
		productRepo := new(MockProductRepository)
		svc := NewService(repo, productRepo)

		_, err := svc.AddItem(context.Background(), 1, AddItemParams{ProductID: 3, Quantity: -1})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		repo.AssertNotCalled(t, "CreateItem")
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		repo := new(MockRepository)
		productRepo := new(MockProductRepository)
		svc := NewService(repo, productRepo)

		productRepo.On("GetByID", mock.Anything, uint(99)).
			Return(nil, product.ErrProductNotFound)

		_, err := svc.AddItem(context.Background(), 1, AddItemParams{ProductID: 99, Quantity: 1})
		assert.ErrorIs(t, err, product.ErrProductNotFound)
		repo.AssertNotCalled(t, "CreateItem")
	})
}

func TestService_UpdateItem(t *testing.T) {
	t.Run("ZeroQuantityRejected", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockProductRepository))

		_, err := svc.UpdateItem(context.Background(), 1, 5, UpdateItemParams{Quantity: 0})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		repo.AssertNotCalled(t, "UpdateItemQuantity")
	})

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockProductRepository))

		repo.On("UpdateItemQuantity", mock.Anything, uint(1), uint(5), 4).
			Return(&CartItem{ID: 5, Quantity: 4}, nil)

		item, err := svc.UpdateItem(context.Background(), 1, 5, UpdateItemParams{Quantity: 4})
		require.NoError(t, err)
		assert.Equal(t, 4, item.Quantity)
	})
}
