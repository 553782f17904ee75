package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tillhouse/pos/internal/domain"
	pkgkafka "github.com/tillhouse/pos/pkg/kafka"
)

// Kafka topic constants for point-of-sale domain events.
const (
	TopicOrderCreated    = "pos.order.created"
	TopicOrderUpdated    = "pos.order.updated"
	TopicOrderDeleted    = "pos.order.deleted"
	TopicProductCreated  = "pos.product.created"
	TopicProductUpdated  = "pos.product.updated"
	TopicProductDeleted  = "pos.product.deleted"
	TopicSettingsUpdated = "pos.settings.updated"
	TopicCartUpdated     = "pos.cart.updated"
	TopicCartCleared     = "pos.cart.cleared"
)

// Aggregate type constants.
const (
	AggregateTypeOrder    = "order"
	AggregateTypeProduct  = "product"
	AggregateTypeSettings = "settings"
	AggregateTypeCart     = "cart"
)

// Source identifier for events originating from this API.
const SourcePOSAPI = "pos-api"

// OrderCreatedData is the payload for an order.created event (full order snapshot).
type OrderCreatedData struct {
	ID            string          `json:"id"`
	ShopID        string          `json:"shop_id"`
	OrderNumber   string          `json:"order_number"`
	Status        string          `json:"status"`
	Items         []OrderItemData `json:"items"`
	Subtotal      int64           `json:"subtotal"`
	Tax           int64           `json:"tax"`
	Discount      int64           `json:"discount"`
	Total         int64           `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	CashierID     string          `json:"cashier_id"`
	OrderType     string          `json:"order_type"`
}

// OrderItemData is the event payload for an order line.
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderUpdatedData is the payload for an order.updated event. Only the
// fields that actually changed are set.
type OrderUpdatedData struct {
	OrderID       string  `json:"order_id"`
	ShopID        string  `json:"shop_id"`
	Status        *string `json:"status,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
}

// OrderDeletedData is the payload for an order.deleted event.
type OrderDeletedData struct {
	OrderID string `json:"order_id"`
	ShopID  string `json:"shop_id"`
}

// ProductChangedData is the payload for product.created and product.updated events.
type ProductChangedData struct {
	ID          string `json:"id"`
	ShopID      string `json:"shop_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	IsAvailable bool   `json:"is_available"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ProductID string `json:"product_id"`
	ShopID    string `json:"shop_id"`
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	ShopID    string `json:"shop_id"`
	UserID    string `json:"user_id"`
	ItemCount int    `json:"item_count"`
	Total     int64  `json:"total"`
	Version   int    `json:"version"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	ShopID string `json:"shop_id"`
	UserID string `json:"user_id"`
}

// SettingsUpdatedData is the payload for a settings.updated event.
type SettingsUpdatedData struct {
	ShopID string   `json:"shop_id"`
	Keys   []string `json:"keys"`
}

// Producer publishes point-of-sale domain events to Kafka. A Producer with
// a nil Kafka client drops events silently, which keeps event publishing
// optional in deployments without a broker.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer. kafka may be nil.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) error {
	if p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, SourcePOSAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

// PublishOrderCreated publishes an order.created event with the full order snapshot.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	items := make([]OrderItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemData{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}

	data := OrderCreatedData{
		ID:            order.ID,
		ShopID:        order.ShopID,
		OrderNumber:   order.OrderNumber,
		Status:        string(order.Status),
		Items:         items,
		Subtotal:      order.Subtotal,
		Tax:           order.Tax,
		Discount:      order.Discount,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: string(order.PaymentStatus),
		CashierID:     order.CashierID,
		OrderType:     string(order.OrderType),
	}

	return p.publish(ctx, TopicOrderCreated, TopicOrderCreated, order.ID, AggregateTypeOrder, data)
}

// PublishOrderUpdated publishes an order.updated event carrying the patched fields.
func (p *Producer) PublishOrderUpdated(ctx context.Context, shopID, orderID string, patch *domain.OrderPatch) error {
	data := OrderUpdatedData{
		OrderID:       orderID,
		ShopID:        shopID,
		Status:        patch.Status,
		PaymentStatus: patch.PaymentStatus,
		PaymentMethod: patch.PaymentMethod,
	}

	return p.publish(ctx, TopicOrderUpdated, TopicOrderUpdated, orderID, AggregateTypeOrder, data)
}

// PublishOrderDeleted publishes an order.deleted event.
func (p *Producer) PublishOrderDeleted(ctx context.Context, shopID, orderID string) error {
	data := OrderDeletedData{OrderID: orderID, ShopID: shopID}
	return p.publish(ctx, TopicOrderDeleted, TopicOrderDeleted, orderID, AggregateTypeOrder, data)
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, TopicProductCreated, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, TopicProductUpdated, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, shopID, productID string) error {
	data := ProductDeletedData{ProductID: productID, ShopID: shopID}
	return p.publish(ctx, TopicProductDeleted, TopicProductDeleted, productID, AggregateTypeProduct, data)
}

// PublishSettingsUpdated publishes a settings.updated event listing the changed keys.
func (p *Producer) PublishSettingsUpdated(ctx context.Context, shopID string, keys []string) error {
	data := SettingsUpdatedData{ShopID: shopID, Keys: keys}
	return p.publish(ctx, TopicSettingsUpdated, TopicSettingsUpdated, shopID, AggregateTypeSettings, data)
}

// PublishCartUpdated publishes a cart.updated event with the cart summary.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	data := CartUpdatedData{
		ShopID:    cart.ShopID,
		UserID:    cart.UserID,
		ItemCount: cart.ItemCount(),
		Total:     cart.Total(),
		Version:   cart.Version,
	}
	return p.publish(ctx, TopicCartUpdated, TopicCartUpdated, cart.UserID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, shopID, userID string) error {
	data := CartClearedData{ShopID: shopID, UserID: userID}
	return p.publish(ctx, TopicCartCleared, TopicCartCleared, userID, AggregateTypeCart, data)
}

func productData(p *domain.Product) ProductChangedData {
	return ProductChangedData{
		ID:          p.ID,
		ShopID:      p.ShopID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
		IsAvailable: p.IsAvailable,
	}
}
