package http

import (
	"log/slog"
	"net/http"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/internal/service"
	"github.com/tillhouse/pos/pkg/httputil"
	"github.com/tillhouse/pos/pkg/middleware"
	"github.com/tillhouse/pos/pkg/validator"
)

// maxBodySize caps request bodies at 1 MiB.
const maxBodySize = 1 << 20

// AuthHandler handles registration, login, and token endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

// RegisterRequest is the request body for shop registration.
type RegisterRequest struct {
	ShopName string `json:"shop_name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Address  string `json:"address" validate:"omitempty,max=500"`
	Phone    string `json:"phone" validate:"omitempty,max=50"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the request body for refreshing tokens.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RegisterResponse is the response body for shop registration.
type RegisterResponse struct {
	Shop   *domain.Shop      `json:"shop"`
	User   *domain.User      `json:"user"`
	Tokens *domain.TokenPair `json:"tokens"`
}

// AuthResponse is the response body for login.
type AuthResponse struct {
	User   *domain.User      `json:"user"`
	Tokens *domain.TokenPair `json:"tokens"`
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shop, owner, tokens, err := h.service.Register(r.Context(), service.RegisterInput{
		ShopName: req.ShopName,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data: RegisterResponse{Shop: shop, User: owner, Tokens: tokens},
	})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: AuthResponse{User: user, Tokens: tokens},
	})
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req RefreshRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	tokens, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tokens})
}

// Me handles GET /api/v1/auth/me. Returns the authenticated user's profile
// and their shop.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	shop, err := h.service.GetShop(r.Context(), user.ShopID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"user": user, "shop": shop},
	})
}

// CreateStaffRequest is the request body for adding a staff account.
type CreateStaffRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Role     string `json:"role" validate:"required,oneof=manager cashier"`
}

// CreateStaff handles POST /api/v1/shops/{shopID}/staff.
func (h *AuthHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req CreateStaffRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shopID := middleware.ShopIDFromContext(r.Context())

	user, err := h.service.CreateStaff(r.Context(), shopID, service.CreateStaffInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}

// ListStaff handles GET /api/v1/shops/{shopID}/staff.
func (h *AuthHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	shopID := middleware.ShopIDFromContext(r.Context())

	users, err := h.service.ListStaff(r.Context(), shopID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: users})
}
