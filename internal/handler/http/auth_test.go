package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillhouse/pos/internal/domain"
)

func authRouter(userRepo *mockUserRepo, shopRepo *mockShopRepo) *chi.Mux {
	handler := NewAuthHandler(authService(userRepo, shopRepo), handlerTestLogger())
	r := chi.NewRouter()
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/refresh", handler.Refresh)
	})
	return r
}

func activeUserWithPassword(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	return &domain.User{
		ID:           testUserID,
		ShopID:       testShopID,
		Email:        "owner@example.com",
		PasswordHash: string(hash),
		Name:         "Owner",
		Role:         domain.RoleOwner,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	shopRepo := new(mockShopRepo)
	router := authRouter(userRepo, shopRepo)

	shopRepo.On("CreateWithOwner", mock.Anything,
		mock.AnythingOfType("*domain.Shop"), mock.AnythingOfType("*domain.User")).Return(nil)

	body, _ := json.Marshal(RegisterRequest{
		ShopName: "Corner Cafe",
		Email:    "owner@example.com",
		Password: "s3cretpass",
		Name:     "Owner",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	shop := data["shop"].(map[string]any)
	user := data["user"].(map[string]any)
	tokens := data["tokens"].(map[string]any)

	assert.Equal(t, "Corner Cafe", shop["name"])
	assert.Equal(t, shop["owner_id"], user["id"], "shop owner links to the created user")
	assert.Equal(t, shop["id"], user["shop_id"])
	assert.Equal(t, "owner", user["role"])
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])
	shopRepo.AssertExpectations(t)
}

func TestAuthHandler_Register_WeakPassword(t *testing.T) {
	userRepo := new(mockUserRepo)
	shopRepo := new(mockShopRepo)
	router := authRouter(userRepo, shopRepo)

	body, _ := json.Marshal(RegisterRequest{
		ShopName: "Corner Cafe",
		Email:    "owner@example.com",
		Password: "short",
		Name:     "Owner",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	shopRepo.AssertNotCalled(t, "CreateWithOwner")
}

func TestAuthHandler_Login_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := authRouter(userRepo, new(mockShopRepo))

	user := activeUserWithPassword(t, "s3cretpass")
	userRepo.On("GetByEmail", mock.Anything, "owner@example.com").Return(user, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"email":"owner@example.com","password":"s3cretpass"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	tokens := data["tokens"].(map[string]any)
	assert.NotEmpty(t, tokens["access_token"])
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := authRouter(userRepo, new(mockShopRepo))

	user := activeUserWithPassword(t, "s3cretpass")
	userRepo.On("GetByEmail", mock.Anything, "owner@example.com").Return(user, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"email":"owner@example.com","password":"wrongpass1"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	resp := decodeResponse(t, rec)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestAuthHandler_Refresh_InvalidToken(t *testing.T) {
	router := authRouter(new(mockUserRepo), new(mockShopRepo))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
		bytes.NewReader([]byte(`{"refresh_token":"not-a-jwt"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
