package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/internal/repository"
	"github.com/tillhouse/pos/internal/service"
	apperrors "github.com/tillhouse/pos/pkg/errors"
	"github.com/tillhouse/pos/pkg/httputil"
	"github.com/tillhouse/pos/pkg/middleware"
	"github.com/tillhouse/pos/pkg/validator"
)

// OrderHandler handles order capture and retrieval endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: service, logger: logger}
}

// CreateOrderRequest is the request body for capturing an order.
type CreateOrderRequest struct {
	Items         []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Tax           int64                    `json:"tax" validate:"gte=0"`
	Discount      int64                    `json:"discount" validate:"gte=0"`
	PaymentMethod string                   `json:"payment_method" validate:"required,oneof=cash card mobile"`
	PaymentStatus string                   `json:"payment_status" validate:"omitempty,oneof=pending paid refunded"`
	CustomerName  string                   `json:"customer_name" validate:"omitempty,max=200"`
	OrderType     string                   `json:"order_type" validate:"omitempty,oneof=dine_in takeaway delivery"`
	Notes         string                   `json:"notes" validate:"omitempty,max=1000"`
}

// CreateOrderItemRequest is a single order line in the request.
type CreateOrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// PatchOrderRequest is the request body for patching an order. Absent fields
// are left untouched. Items replaces the full line set.
type PatchOrderRequest struct {
	Status        *string             `json:"status" validate:"omitempty,oneof=pending completed failed"`
	Items         *[]OrderItemRequest `json:"items" validate:"omitempty,min=1,dive"`
	Subtotal      *int64              `json:"subtotal" validate:"omitempty,gte=0"`
	Tax           *int64              `json:"tax" validate:"omitempty,gte=0"`
	Discount      *int64              `json:"discount" validate:"omitempty,gte=0"`
	Total         *int64              `json:"total" validate:"omitempty,gte=0"`
	PaymentStatus *string             `json:"payment_status" validate:"omitempty,oneof=pending paid refunded"`
	PaymentMethod *string             `json:"payment_method" validate:"omitempty,oneof=cash card mobile"`
	CustomerName  *string             `json:"customer_name" validate:"omitempty,max=200"`
	Notes         *string             `json:"notes" validate:"omitempty,max=1000"`
}

// OrderItemRequest is a full order line in a patch body. Unlike capture,
// patched lines carry their own name and price since they replace the
// snapshot taken at capture time.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=200"`
	Price     int64  `json:"price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// Create handles POST /api/v1/shops/{shopID}/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req CreateOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	items := make([]service.CreateOrderItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	shopID := chi.URLParam(r, "shopID")
	cashierID := middleware.UserIDFromContext(r.Context())

	order, err := h.service.CreateOrder(r.Context(), shopID, cashierID, service.CreateOrderInput{
		Items:         items,
		Tax:           req.Tax,
		Discount:      req.Discount,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: req.PaymentStatus,
		CustomerName:  req.CustomerName,
		OrderType:     req.OrderType,
		Notes:         req.Notes,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// Get handles GET /api/v1/shops/{shopID}/orders/{orderID}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "orderID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// List handles GET /api/v1/shops/{shopID}/orders. Supports status,
// payment_status, cashier_id, from/to date range, and pagination query
// parameters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := orderFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	orders, total, err := h.service.ListOrders(r.Context(), chi.URLParam(r, "shopID"), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 20
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, page, perPage))
}

// Patch handles PATCH /api/v1/shops/{shopID}/orders/{orderID}.
func (h *OrderHandler) Patch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req PatchOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	patch := &domain.OrderPatch{
		Status:        req.Status,
		Subtotal:      req.Subtotal,
		Tax:           req.Tax,
		Discount:      req.Discount,
		Total:         req.Total,
		PaymentStatus: req.PaymentStatus,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		Notes:         req.Notes,
	}
	if req.Items != nil {
		items := make([]domain.OrderItem, len(*req.Items))
		for i, item := range *req.Items {
			items[i] = domain.OrderItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.Price,
				Quantity:  item.Quantity,
			}
		}
		patch.Items = &items
	}

	order, err := h.service.PatchOrder(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "orderID"), patch)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// Delete handles DELETE /api/v1/shops/{shopID}/orders/{orderID}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "orderID")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// orderFilterFromQuery parses the list query parameters. Dates accept
// RFC 3339 timestamps or plain YYYY-MM-DD dates.
func orderFilterFromQuery(r *http.Request) (repository.OrderFilter, error) {
	var filter repository.OrderFilter
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		filter.Status = &status
	}
	if paymentStatus := q.Get("payment_status"); paymentStatus != "" {
		filter.PaymentStatus = &paymentStatus
	}
	if cashierID := q.Get("cashier_id"); cashierID != "" {
		filter.CashierID = &cashierID
	}

	if from := q.Get("from"); from != "" {
		t, err := parseQueryTime(from)
		if err != nil {
			return filter, err
		}
		filter.DateFrom = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := parseQueryTime(to)
		if err != nil {
			return filter, err
		}
		filter.DateTo = &t
	}

	if page := q.Get("page"); page != "" {
		filter.Page, _ = strconv.Atoi(page)
	}
	if perPage := q.Get("per_page"); perPage != "" {
		filter.PerPage, _ = strconv.Atoi(perPage)
	}

	return filter, nil
}

func parseQueryTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid date " + strconv.Quote(s) + ", expected RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}
