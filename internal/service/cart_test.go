package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tillhouse/pos/internal/domain"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

func newCartService(cartRepo *mockCartRepository, productRepo *mockProductRepository) *CartService {
	return NewCartService(cartRepo, productRepo, noopProducer(), testLogger())
}

func cartWith(items ...domain.CartItem) *domain.Cart {
	return &domain.Cart{
		ShopID:  "s-1",
		UserID:  "u-1",
		Items:   items,
		Version: 3,
	}
}

func TestCartService_GetCart_MissingReturnsEmpty(t *testing.T) {
	cartRepo := new(mockCartRepository)
	svc := newCartService(cartRepo, new(mockProductRepository))

	cartRepo.On("Get", mock.Anything, "s-1", "u-1").Return(nil, apperrors.ErrNotFound)

	cart, err := svc.GetCart(context.Background(), "s-1", "u-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, "s-1", cart.ShopID)
	assert.Equal(t, "u-1", cart.UserID)
}

func TestCartService_AddItem_NewCart(t *testing.T) {
	cartRepo := new(mockCartRepository)
	productRepo := new(mockProductRepository)
	svc := newCartService(cartRepo, productRepo)

	productRepo.On("GetByID", mock.Anything, "s-1", "p-1").Return(availableProduct("p-1", 450), nil)
	cartRepo.On("Get", mock.Anything, "s-1", "u-1").Return(nil, apperrors.ErrNotFound)
	cartRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.AddItem(context.Background(), "s-1", "u-1", "p-1", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Product p-1", cart.Items[0].Name)
	assert.Equal(t, int64(450), cart.Items[0].Price)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, int64(900), cart.Items[0].Total)
	assert.Equal(t, int64(900), cart.Total())
	assert.Equal(t, 1, cart.Version)
	cartRepo.AssertExpectations(t)
}

func TestCartService_AddItem_MergesExistingLine(t *testing.T) {
	cartRepo := new(mockCartRepository)
	productRepo := new(mockProductRepository)
	svc := newCartService(cartRepo, productRepo)

	existing := cartWith(domain.CartItem{ProductID: "p-1", Name: "Product p-1", Price: 450, Quantity: 1})

	productRepo.On("GetByID", mock.Anything, "s-1", "p-1").Return(availableProduct("p-1", 450), nil)
	cartRepo.On("Get", mock.Anything, "s-1", "u-1").Return(existing, nil)
	cartRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.AddItem(context.Background(), "s-1", "u-1", "p-1", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 4, cart.Version)
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	svc := newCartService(new(mockCartRepository), new(mockProductRepository))

	_, err := svc.AddItem(context.Background(), "s-1", "u-1", "p-1", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCartService_AddItem_UnavailableProduct(t *testing.T) {
	cartRepo := new(mockCartRepository)
	productRepo := new(mockProductRepository)
	svc := newCartService(cartRepo, productRepo)

	p := availableProduct("p-1", 450)
	p.IsAvailable = false
	productRepo.On("GetByID", mock.Anything, "s-1", "p-1").Return(p, nil)

	_, err := svc.AddItem(context.Background(), "s-1", "u-1", "p-1", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	cartRepo.AssertNotCalled(t, "Save")
}

func TestCartService_SetItemQuantity_Updates(t *testing.T) {
	cartRepo := new(mockCartRepository)
	svc := newCartService(cartRepo, new(mockProductRepository))

	existing := cartWith(domain.CartItem{ProductID: "p-1", Name: "Product p-1", Price: 450, Quantity: 1})

	cartRepo.On("Get", mock.Anything, "s-1", "u-1").Return(existing, nil)
	cartRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.SetItemQuantity(context.Background(), "s-1", "u-1", "p-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCartService_SetItemQuantity_ZeroRemovesLastLine(t *testing.T) {
	cartRepo := new(mockCartRepository)
	svc := newCartService(cartRepo, new(mockProductRepository))

	existing := cartWith(domain.CartItem{ProductID: "p-1", Name: "Product p-1", Price: 450, Quantity: 1})

	cartRepo.On("Get", mock.Anything, "s-1", "u-1").Return(existing, nil)
	cartRepo.On("Delete", mock.Anything, "s-1", "u-1").Return(nil)

	cart, err := svc.SetItemQuantity(context.Background(), "s-1", "u-1", "p-1", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	cartRepo.AssertNotCalled(t, "Save")
	cartRepo.AssertExpectations(t)
}

func TestCartService_SetItemQuantity_NegativeRejected(t *testing.T) {
	svc := newCartService(new(mockCartRepository), new(mockProductRepository))

	_, err := svc.SetItemQuantity(context.Background(), "s-1", "u-1", "p-1", -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCartService_SetItemQuantity_UnknownLine(t *testing.T) {
	cartRepo := new(mockCartRepository)
	svc := newCartService(cartRepo, new(mockProductRepository))

	existing := cartWith(domain.CartItem{ProductID: "p-1", Name: "Product p-1", Price: 450, Quantity: 1})
	cartRepo.On("Get", mock.Anything, "s-1", "u-1").Return(existing, nil)

	_, err := svc.SetItemQuantity(context.Background(), "s-1", "u-1", "other-product", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_RemoveItem_DropsLine(t *testing.T) {
	cartRepo := new(mockCartRepository)
	svc := newCartService(cartRepo, new(mockProductRepository))

	existing := cartWith(
		domain.CartItem{ProductID: "p-1", Name: "Espresso", Price: 250, Quantity: 2, Total: 500},
		domain.CartItem{ProductID: "p-2", Name: "Croissant", Price: 350, Quantity: 1, Total: 350},
	)
	cartRepo.On("Get", mock.Anything, "s-1", "u-1").Return(existing, nil)
	cartRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.RemoveItem(context.Background(), "s-1", "u-1", "p-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p-2", cart.Items[0].ProductID)
	cartRepo.AssertExpectations(t)
}

func TestCartService_RemoveItem_AbsentLineIsNoop(t *testing.T) {
	cartRepo := new(mockCartRepository)
	svc := newCartService(cartRepo, new(mockProductRepository))

	existing := cartWith(
		domain.CartItem{ProductID: "p-1", Name: "Espresso", Price: 250, Quantity: 2, Total: 500},
	)
	cartRepo.On("Get", mock.Anything, "s-1", "u-1").Return(existing, nil)

	cart, err := svc.RemoveItem(context.Background(), "s-1", "u-1", "unknown")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	cartRepo.AssertNotCalled(t, "Save")
	cartRepo.AssertNotCalled(t, "Delete")
}

func TestCartService_RemoveItem_MissingCartIsNoop(t *testing.T) {
	cartRepo := new(mockCartRepository)
	svc := newCartService(cartRepo, new(mockProductRepository))

	cartRepo.On("Get", mock.Anything, "s-1", "u-1").Return(nil, apperrors.ErrNotFound)

	cart, err := svc.RemoveItem(context.Background(), "s-1", "u-1", "p-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartService_ClearCart(t *testing.T) {
	cartRepo := new(mockCartRepository)
	svc := newCartService(cartRepo, new(mockProductRepository))

	cartRepo.On("Delete", mock.Anything, "s-1", "u-1").Return(nil)

	err := svc.ClearCart(context.Background(), "s-1", "u-1")
	assert.NoError(t, err)
	cartRepo.AssertExpectations(t)
}
