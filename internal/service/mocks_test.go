package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/internal/event"
	"github.com/tillhouse/pos/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noopProducer returns an event producer with no Kafka client behind it.
func noopProducer() *event.Producer {
	return event.NewProducer(nil, testLogger())
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) ListByShop(ctx context.Context, shopID string) ([]domain.User, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, shopID, id string) error {
	args := m.Called(ctx, shopID, id)
	return args.Error(0)
}

// --- Mock Shop Repository ---

type mockShopRepository struct {
	mock.Mock
}

func (m *mockShopRepository) CreateWithOwner(ctx context.Context, shop *domain.Shop, owner *domain.User) error {
	args := m.Called(ctx, shop, owner)
	return args.Error(0)
}

func (m *mockShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *mockShopRepository) Update(ctx context.Context, shop *domain.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

// --- Mock Product Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, shopID, id string) (*domain.Product, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) ListByShop(ctx context.Context, shopID string, filter repository.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, shopID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, shopID, id string) error {
	args := m.Called(ctx, shopID, id)
	return args.Error(0)
}

// --- Mock Order Repository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, shopID, id string) (*domain.Order, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, shopID string, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, shopID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) Patch(ctx context.Context, shopID, id string, patch *domain.OrderPatch) error {
	args := m.Called(ctx, shopID, id, patch)
	return args.Error(0)
}

func (m *mockOrderRepository) Delete(ctx context.Context, shopID, id string) error {
	args := m.Called(ctx, shopID, id)
	return args.Error(0)
}

// --- Mock Setting Repository ---

type mockSettingRepository struct {
	mock.Mock
}

func (m *mockSettingRepository) Get(ctx context.Context, shopID, key string) (*domain.Setting, error) {
	args := m.Called(ctx, shopID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Setting), args.Error(1)
}

func (m *mockSettingRepository) List(ctx context.Context, shopID string) ([]domain.Setting, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Setting), args.Error(1)
}

func (m *mockSettingRepository) Upsert(ctx context.Context, setting *domain.Setting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

func (m *mockSettingRepository) UpsertBatch(ctx context.Context, settings []domain.Setting) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *mockSettingRepository) Delete(ctx context.Context, shopID, key string) error {
	args := m.Called(ctx, shopID, key)
	return args.Error(0)
}

func (m *mockSettingRepository) DeleteAll(ctx context.Context, shopID string) error {
	args := m.Called(ctx, shopID)
	return args.Error(0)
}

// --- Mock Cart Repository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, shopID, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, shopID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, shopID, userID string) error {
	args := m.Called(ctx, shopID, userID)
	return args.Error(0)
}
