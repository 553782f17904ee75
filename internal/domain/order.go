package domain

import "time"

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// Payment status constants.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// Order type constants.
const (
	OrderTypeDineIn   = "dine_in"
	OrderTypeTakeaway = "takeaway"
	OrderTypeDelivery = "delivery"
)

// Payment method constants.
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodMobile = "mobile"
)

// Order represents a captured sale. All monetary amounts are in the smallest
// currency unit (cents).
type Order struct {
	ID            string      `json:"id"`
	ShopID        string      `json:"shop_id"`
	OrderNumber   string      `json:"order_number"`
	Status        string      `json:"status"`
	Items         []OrderItem `json:"items"`
	Subtotal      int64       `json:"subtotal"`
	Tax           int64       `json:"tax"`
	Discount      int64       `json:"discount"`
	Total         int64       `json:"total"`
	PaymentMethod string      `json:"payment_method"`
	PaymentStatus string      `json:"payment_status"`
	CashierID     string      `json:"cashier_id"`
	CustomerName  string      `json:"customer_name,omitempty"`
	OrderType     string      `json:"order_type"`
	Notes         string      `json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// OrderItem represents a single line of an order, denormalized at capture
// time so later product edits do not rewrite history.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderPatch carries the fields a client may change on an existing order.
// Nil fields are left untouched. Items replaces the full line set and is
// serialized to JSON before persistence, the same as on capture.
type OrderPatch struct {
	Status        *string      `json:"status,omitempty"`
	Items         *[]OrderItem `json:"items,omitempty"`
	Subtotal      *int64       `json:"subtotal,omitempty"`
	Tax           *int64       `json:"tax,omitempty"`
	Discount      *int64       `json:"discount,omitempty"`
	Total         *int64       `json:"total,omitempty"`
	PaymentStatus *string      `json:"payment_status,omitempty"`
	PaymentMethod *string      `json:"payment_method,omitempty"`
	CustomerName  *string      `json:"customer_name,omitempty"`
	Notes         *string      `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.Items == nil &&
		p.Subtotal == nil && p.Tax == nil && p.Discount == nil && p.Total == nil &&
		p.PaymentStatus == nil && p.PaymentMethod == nil &&
		p.CustomerName == nil && p.Notes == nil
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{OrderStatusPending, OrderStatusCompleted, OrderStatusFailed}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidPaymentStatus checks if a payment status string is valid.
func IsValidPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// IsValidPaymentMethod checks if a payment method string is valid.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodMobile:
		return true
	}
	return false
}

// IsValidOrderType checks if an order type string is valid.
func IsValidOrderType(orderType string) bool {
	switch orderType {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

// AllowedTransitions defines which order status transitions are valid.
// Completed and failed are terminal except that a completed order may still
// be marked failed when a payment is later voided.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:   {OrderStatusCompleted, OrderStatusFailed},
		OrderStatusCompleted: {OrderStatusFailed},
		OrderStatusFailed:    {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// SubtotalFromItems recomputes the subtotal from the order lines.
func (o *Order) SubtotalFromItems() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}
