package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tillhouse/pos/internal/repository"
	"github.com/tillhouse/pos/internal/service"
	"github.com/tillhouse/pos/pkg/httputil"
	"github.com/tillhouse/pos/pkg/validator"
)

// ProductHandler handles catalog endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: service, logger: logger}
}

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Name              string `json:"name" validate:"required,min=1,max=200"`
	Description       string `json:"description" validate:"omitempty,max=2000"`
	Category          string `json:"category" validate:"required,min=1,max=100"`
	Price             int64  `json:"price" validate:"gte=0"`
	ImageURL          string `json:"image_url" validate:"omitempty,url,max=500"`
	IsAvailable       *bool  `json:"is_available"`
	StockQuantity     int    `json:"stock_quantity" validate:"gte=0"`
	LowStockThreshold int    `json:"low_stock_threshold" validate:"gte=0"`
}

// UpdateProductRequest is the request body for updating a product. Absent
// fields are left untouched.
type UpdateProductRequest struct {
	Name              *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description       *string `json:"description" validate:"omitempty,max=2000"`
	Category          *string `json:"category" validate:"omitempty,min=1,max=100"`
	Price             *int64  `json:"price" validate:"omitempty,gte=0"`
	ImageURL          *string `json:"image_url" validate:"omitempty,max=500"`
	IsAvailable       *bool   `json:"is_available"`
	StockQuantity     *int    `json:"stock_quantity" validate:"omitempty,gte=0"`
	LowStockThreshold *int    `json:"low_stock_threshold" validate:"omitempty,gte=0"`
}

// Create handles POST /api/v1/shops/{shopID}/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req CreateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), chi.URLParam(r, "shopID"), service.CreateProductInput{
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		Price:             req.Price,
		ImageURL:          req.ImageURL,
		IsAvailable:       req.IsAvailable,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// Get handles GET /api/v1/shops/{shopID}/products/{productID}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// List handles GET /api/v1/shops/{shopID}/products. Supports ?category= and
// ?available=true filters.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repository.ProductFilter

	if category := r.URL.Query().Get("category"); category != "" {
		filter.Category = &category
	}
	if r.URL.Query().Get("available") == "true" {
		filter.AvailableOnly = true
	}

	products, err := h.service.ListProducts(r.Context(), chi.URLParam(r, "shopID"), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// Update handles PUT /api/v1/shops/{shopID}/products/{productID}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req UpdateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "productID"), service.UpdateProductInput{
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		Price:             req.Price,
		ImageURL:          req.ImageURL,
		IsAvailable:       req.IsAvailable,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// Delete handles DELETE /api/v1/shops/{shopID}/products/{productID}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "productID")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
