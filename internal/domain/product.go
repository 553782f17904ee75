package domain

import "time"

// Product represents a catalog item sold by a shop. Price is stored in the
// smallest currency unit (cents).
type Product struct {
	ID                string    `json:"id"`
	ShopID            string    `json:"shop_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Category          string    `json:"category,omitempty"`
	Price             int64     `json:"price"`
	ImageURL          string    `json:"image_url,omitempty"`
	IsAvailable       bool      `json:"is_available"`
	StockQuantity     int       `json:"stock_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsLowStock reports whether the product's stock has fallen to or below its
// low stock threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}
