package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tillhouse/pos/internal/service"
	"github.com/tillhouse/pos/pkg/httputil"
	"github.com/tillhouse/pos/pkg/middleware"
	"github.com/tillhouse/pos/pkg/validator"
)

// CartHandler handles session cart endpoints. The cart is scoped to the
// authenticated user and their shop, both taken from the access token.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: service, logger: logger}
}

// AddCartItemRequest is the request body for adding a product to the cart.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// SetCartItemRequest is the request body for setting a cart line's quantity.
// Zero removes the line.
type SetCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// Get handles GET /api/v1/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	shopID := middleware.ShopIDFromContext(r.Context())
	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.GetCart(r.Context(), shopID, userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// AddItem handles POST /api/v1/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req AddCartItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shopID := middleware.ShopIDFromContext(r.Context())
	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.AddItem(r.Context(), shopID, userID, req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// SetItem handles PUT /api/v1/cart/items/{productID}.
func (h *CartHandler) SetItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req SetCartItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shopID := middleware.ShopIDFromContext(r.Context())
	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.SetItemQuantity(r.Context(), shopID, userID, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	shopID := middleware.ShopIDFromContext(r.Context())
	userID := middleware.UserIDFromContext(r.Context())

	cart, err := h.service.RemoveItem(r.Context(), shopID, userID, chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// Clear handles DELETE /api/v1/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	shopID := middleware.ShopIDFromContext(r.Context())
	userID := middleware.UserIDFromContext(r.Context())

	if err := h.service.ClearCart(r.Context(), shopID, userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
