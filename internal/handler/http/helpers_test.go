package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tillhouse/pos/internal/auth"
	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/internal/event"
	"github.com/tillhouse/pos/internal/repository"
	"github.com/tillhouse/pos/internal/service"
	"github.com/tillhouse/pos/pkg/httputil"
	"github.com/tillhouse/pos/pkg/middleware"
)

const (
	testShopID = "550e8400-e29b-41d4-a716-446655440001"
	testUserID = "550e8400-e29b-41d4-a716-446655440002"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ListByShop(ctx context.Context, shopID string) ([]domain.User, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, shopID, id string) error {
	args := m.Called(ctx, shopID, id)
	return args.Error(0)
}

type mockShopRepo struct {
	mock.Mock
}

func (m *mockShopRepo) CreateWithOwner(ctx context.Context, shop *domain.Shop, owner *domain.User) error {
	args := m.Called(ctx, shop, owner)
	return args.Error(0)
}

func (m *mockShopRepo) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *mockShopRepo) Update(ctx context.Context, shop *domain.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, shopID, id string) (*domain.Product, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) ListByShop(ctx context.Context, shopID string, filter repository.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, shopID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepo) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, shopID, id string) error {
	args := m.Called(ctx, shopID, id)
	return args.Error(0)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, shopID, id string) (*domain.Order, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, shopID string, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, shopID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepo) Patch(ctx context.Context, shopID, id string, patch *domain.OrderPatch) error {
	args := m.Called(ctx, shopID, id, patch)
	return args.Error(0)
}

func (m *mockOrderRepo) Delete(ctx context.Context, shopID, id string) error {
	args := m.Called(ctx, shopID, id)
	return args.Error(0)
}

type mockSettingRepo struct {
	mock.Mock
}

func (m *mockSettingRepo) Get(ctx context.Context, shopID, key string) (*domain.Setting, error) {
	args := m.Called(ctx, shopID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Setting), args.Error(1)
}

func (m *mockSettingRepo) List(ctx context.Context, shopID string) ([]domain.Setting, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Setting), args.Error(1)
}

func (m *mockSettingRepo) Upsert(ctx context.Context, setting *domain.Setting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

func (m *mockSettingRepo) UpsertBatch(ctx context.Context, settings []domain.Setting) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *mockSettingRepo) Delete(ctx context.Context, shopID, key string) error {
	args := m.Called(ctx, shopID, key)
	return args.Error(0)
}

func (m *mockSettingRepo) DeleteAll(ctx context.Context, shopID string) error {
	args := m.Called(ctx, shopID)
	return args.Error(0)
}

type mockCartRepo struct {
	mock.Mock
}

func (m *mockCartRepo) Get(ctx context.Context, shopID, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, shopID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepo) Delete(ctx context.Context, shopID, userID string) error {
	args := m.Called(ctx, shopID, userID)
	return args.Error(0)
}

// ============================================================================
// Test Helpers
// ============================================================================

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func handlerTestProducer() *event.Producer {
	return event.NewProducer(nil, handlerTestLogger())
}

func handlerTestJWT() *auth.JWTManager {
	return auth.NewJWTManager("handler-test-secret-key-long-enough", 15*time.Minute, 24*time.Hour)
}

// fakeTokenValidator returns a validator that always succeeds with claims
// for the given user and shop.
func fakeTokenValidator(userID, shopID, role string) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		return &middleware.Claims{
			UserID: userID,
			Email:  "staff@example.com",
			Role:   role,
			ShopID: shopID,
		}, nil
	}
}

// setupShopRouter mirrors the production shop-scoped routes with a fake
// token validator, so requests carry Bearer auth and pass ShopAccess only
// for the granted shop.
func setupShopRouter(userID, shopID, role string, register func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/shops/{shopID}", func(r chi.Router) {
		r.Use(middleware.Auth(fakeTokenValidator(userID, shopID, role)), ShopAccess, ContentTypeJSON)
		register(r)
	})
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func sampleProduct() *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:                "p-1",
		ShopID:            testShopID,
		Name:              "Cappuccino",
		Description:       "Double shot with steamed milk",
		Category:          "Coffee",
		Price:             450,
		IsAvailable:       true,
		StockQuantity:     30,
		LowStockThreshold: 5,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func productService(repo *mockProductRepo) *service.ProductService {
	return service.NewProductService(repo, handlerTestProducer(), handlerTestLogger())
}

func orderService(orderRepo *mockOrderRepo, productRepo *mockProductRepo) *service.OrderService {
	return service.NewOrderService(orderRepo, productRepo, handlerTestProducer(), nil, handlerTestLogger())
}

func cartService(cartRepo *mockCartRepo, productRepo *mockProductRepo) *service.CartService {
	return service.NewCartService(cartRepo, productRepo, handlerTestProducer(), handlerTestLogger())
}

func settingsService(repo *mockSettingRepo) *service.SettingsService {
	return service.NewSettingsService(repo, handlerTestProducer(), handlerTestLogger())
}

func authService(userRepo *mockUserRepo, shopRepo *mockShopRepo) *service.AuthService {
	return service.NewAuthService(userRepo, shopRepo, handlerTestJWT(), handlerTestLogger())
}
