package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/internal/event"
	"github.com/tillhouse/pos/internal/repository"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

// OrderSyncer pushes captured orders to a remote system. Push failures must
// never fail the capture itself.
type OrderSyncer interface {
	PushOrder(ctx context.Context, order *domain.Order) error
}

// OrderService implements the business logic for order capture and updates.
type OrderService struct {
	repo        repository.OrderRepository
	productRepo repository.ProductRepository
	producer    *event.Producer
	syncer      OrderSyncer
	logger      *slog.Logger
}

// NewOrderService creates a new order service. syncer may be nil.
func NewOrderService(
	repo repository.OrderRepository,
	productRepo repository.ProductRepository,
	producer *event.Producer,
	syncer OrderSyncer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		repo:        repo,
		productRepo: productRepo,
		producer:    producer,
		syncer:      syncer,
		logger:      logger,
	}
}

// CreateOrderItemInput holds the parameters for an order line.
type CreateOrderItemInput struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput holds the parameters for capturing an order.
type CreateOrderInput struct {
	Items         []CreateOrderItemInput
	Tax           int64
	Discount      int64
	PaymentMethod string
	PaymentStatus string
	CustomerName  string
	OrderType     string
	Notes         string
}

// CreateOrder captures a new order. Product name and price are snapshotted
// into the order lines at capture time, so later catalog edits do not
// rewrite sales history.
func (s *OrderService) CreateOrder(ctx context.Context, shopID, cashierID string, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}
	if !domain.IsValidPaymentMethod(input.PaymentMethod) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if input.Tax < 0 || input.Discount < 0 {
		return nil, apperrors.InvalidInput("tax and discount must not be negative")
	}

	paymentStatus := input.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = domain.PaymentStatusPending
	}
	if !domain.IsValidPaymentStatus(paymentStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid payment status %q", paymentStatus))
	}

	orderType := input.OrderType
	if orderType == "" {
		orderType = domain.OrderTypeDineIn
	}
	if !domain.IsValidOrderType(orderType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid order type %q", orderType))
	}

	items := make([]domain.OrderItem, len(input.Items))
	for i, itemInput := range input.Items {
		if itemInput.Quantity <= 0 {
			return nil, apperrors.InvalidInput("item quantity must be positive")
		}

		product, err := s.productRepo.GetByID(ctx, shopID, itemInput.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product %s for order: %w", itemInput.ProductID, err)
		}
		if !product.IsAvailable {
			return nil, apperrors.InvalidInput(fmt.Sprintf("product %q is not available", product.Name))
		}

		items[i] = domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  itemInput.Quantity,
		}
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:            uuid.New().String(),
		ShopID:        shopID,
		OrderNumber:   generateOrderNumber(now),
		Status:        domain.OrderStatusPending,
		Items:         items,
		Tax:           input.Tax,
		Discount:      input.Discount,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: paymentStatus,
		CashierID:     cashierID,
		CustomerName:  input.CustomerName,
		OrderType:     orderType,
		Notes:         input.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	order.Subtotal = order.SubtotalFromItems()
	order.Total = order.Subtotal + order.Tax - order.Discount
	if order.Total < 0 {
		order.Total = 0
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if s.syncer != nil {
		if err := s.syncer.PushOrder(ctx, order); err != nil {
			s.logger.ErrorContext(ctx, "failed to push order to remote",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("shop_id", shopID),
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.Int64("total", order.Total),
	)

	return order, nil
}

// GetOrder retrieves an order within the shop.
func (s *OrderService) GetOrder(ctx context.Context, shopID, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, shopID, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders returns a filtered, paginated list of the shop's orders.
func (s *OrderService) ListOrders(ctx context.Context, shopID string, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	orders, total, err := s.repo.List(ctx, shopID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// PatchOrder applies a partial update to an order. Only the allow-listed
// patch fields can change, and status changes must follow the transition
// rules.
func (s *OrderService) PatchOrder(ctx context.Context, shopID, id string, patch *domain.OrderPatch) (*domain.Order, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, apperrors.InvalidInput("patch contains no updatable fields")
	}

	order, err := s.repo.GetByID(ctx, shopID, id)
	if err != nil {
		return nil, fmt.Errorf("get order for patch: %w", err)
	}

	if patch.Status != nil {
		if !domain.IsValidStatus(*patch.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
				*patch.Status, strings.Join(domain.ValidStatuses(), ", ")))
		}
		if *patch.Status != order.Status && !order.CanTransitionTo(*patch.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("cannot transition from %q to %q", order.Status, *patch.Status))
		}
	}

	if patch.PaymentStatus != nil && !domain.IsValidPaymentStatus(*patch.PaymentStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid payment status %q", *patch.PaymentStatus))
	}

	if patch.PaymentMethod != nil && !domain.IsValidPaymentMethod(*patch.PaymentMethod) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid payment method %q", *patch.PaymentMethod))
	}

	if patch.Items != nil {
		if len(*patch.Items) == 0 {
			return nil, apperrors.InvalidInput("order must contain at least one item")
		}
		for _, item := range *patch.Items {
			if item.ProductID == "" {
				return nil, apperrors.InvalidInput("item product id is required")
			}
			if item.Quantity <= 0 {
				return nil, apperrors.InvalidInput("item quantity must be positive")
			}
			if item.Price < 0 {
				return nil, apperrors.InvalidInput("item price must not be negative")
			}
		}
	}

	if (patch.Subtotal != nil && *patch.Subtotal < 0) ||
		(patch.Tax != nil && *patch.Tax < 0) ||
		(patch.Discount != nil && *patch.Discount < 0) ||
		(patch.Total != nil && *patch.Total < 0) {
		return nil, apperrors.InvalidInput("amounts must not be negative")
	}

	if err := s.repo.Patch(ctx, shopID, id, patch); err != nil {
		return nil, fmt.Errorf("patch order: %w", err)
	}

	if err := s.producer.PublishOrderUpdated(ctx, shopID, id, patch); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.updated event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	applyPatch(order, patch)

	s.logger.InfoContext(ctx, "order patched",
		slog.String("shop_id", shopID),
		slog.String("order_id", id),
	)

	return order, nil
}

// DeleteOrder removes an order from the shop.
func (s *OrderService) DeleteOrder(ctx context.Context, shopID, id string) error {
	if err := s.repo.Delete(ctx, shopID, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := s.producer.PublishOrderDeleted(ctx, shopID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.deleted event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("shop_id", shopID),
		slog.String("order_id", id),
	)

	return nil
}

// applyPatch mirrors the repository's allow-list onto the in-memory order
// so the caller gets the post-patch state back without a second read.
func applyPatch(order *domain.Order, patch *domain.OrderPatch) {
	if patch.Status != nil {
		order.Status = *patch.Status
	}
	if patch.Items != nil {
		order.Items = *patch.Items
	}
	if patch.Subtotal != nil {
		order.Subtotal = *patch.Subtotal
	}
	if patch.Tax != nil {
		order.Tax = *patch.Tax
	}
	if patch.Discount != nil {
		order.Discount = *patch.Discount
	}
	if patch.Total != nil {
		order.Total = *patch.Total
	}
	if patch.PaymentStatus != nil {
		order.PaymentStatus = *patch.PaymentStatus
	}
	if patch.PaymentMethod != nil {
		order.PaymentMethod = *patch.PaymentMethod
	}
	if patch.CustomerName != nil {
		order.CustomerName = *patch.CustomerName
	}
	if patch.Notes != nil {
		order.Notes = *patch.Notes
	}
	order.UpdatedAt = time.Now().UTC()
}

// generateOrderNumber builds a human-readable order number like
// ORD-20260828-3F2A1B. The random suffix keeps concurrent captures from
// colliding; the database enforces uniqueness as the last line of defense.
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
