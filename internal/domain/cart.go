package domain

import "time"

// Cart represents a user's in-progress order for a shop. Carts are keyed by
// (shop, user) and stored as a single blob, so all mutation goes through the
// methods below.
type Cart struct {
	ShopID    string     `json:"shop_id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem represents a single line in the cart. Total is always
// price * quantity and is recomputed on every mutation.
type CartItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Total     int64  `json:"total"`
}

// Total calculates the total price of all items in the cart (in cents).
func (c *Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Total
	}
	return total
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItemIndex returns the index of the cart item with the given product ID,
// or -1 if not found.
func (c *Cart) FindItemIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem merges the given item into the cart. If a line with the same
// product already exists its quantity is increased, otherwise a new line is
// appended. Line totals are recomputed either way.
func (c *Cart) AddItem(item CartItem) {
	if idx := c.FindItemIndex(item.ProductID); idx >= 0 {
		c.Items[idx].Quantity += item.Quantity
		c.Items[idx].Total = c.Items[idx].Price * int64(c.Items[idx].Quantity)
		return
	}
	item.Total = item.Price * int64(item.Quantity)
	c.Items = append(c.Items, item)
}

// SetQuantity sets the quantity of the line with the given product ID and
// recomputes its total. A quantity of zero removes the line. Returns false
// if no such line exists.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	idx := c.FindItemIndex(productID)
	if idx < 0 {
		return false
	}
	if quantity == 0 {
		c.RemoveItem(productID)
		return true
	}
	c.Items[idx].Quantity = quantity
	c.Items[idx].Total = c.Items[idx].Price * int64(quantity)
	return true
}

// RemoveItem deletes the line with the given product ID. Returns false if no
// such line exists.
func (c *Cart) RemoveItem(productID string) bool {
	idx := c.FindItemIndex(productID)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return true
}

// Clear removes all lines from the cart.
func (c *Cart) Clear() {
	c.Items = nil
}
