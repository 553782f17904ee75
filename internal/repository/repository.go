package repository

import (
	"context"
	"time"

	"github.com/tillhouse/pos/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address. Email is unique
	// across all shops, so this lookup is global (used at login).
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ListByShop returns all users belonging to the given shop.
	ListByShop(ctx context.Context, shopID string) ([]domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the given shop.
	Delete(ctx context.Context, shopID, id string) error
}

// ShopRepository defines the interface for shop persistence operations.
type ShopRepository interface {
	// CreateWithOwner inserts a shop and its owner user atomically.
	// Either both rows are committed or neither is.
	CreateWithOwner(ctx context.Context, shop *domain.Shop, owner *domain.User) error

	// GetByID retrieves a shop by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Shop, error)

	// Update modifies an existing shop in the store.
	Update(ctx context.Context, shop *domain.Shop) error
}

// ProductRepository defines the interface for product persistence operations.
// Every operation is scoped by shop ID.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product belonging to the given shop.
	GetByID(ctx context.Context, shopID, id string) (*domain.Product, error)

	// ListByShop returns all products for the given shop, optionally filtered
	// by category.
	ListByShop(ctx context.Context, shopID string, filter ProductFilter) ([]domain.Product, error)

	// Update modifies an existing product within its shop.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product from the given shop.
	Delete(ctx context.Context, shopID, id string) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category      *string
	AvailableOnly bool
}

// OrderRepository defines the interface for order persistence operations.
// Every operation is scoped by shop ID.
type OrderRepository interface {
	// Create inserts a new order into the store.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order belonging to the given shop.
	GetByID(ctx context.Context, shopID, id string) (*domain.Order, error)

	// List returns orders for the given shop matching the filter, along with
	// the total count before pagination.
	List(ctx context.Context, shopID string, filter OrderFilter) ([]domain.Order, int, error)

	// Patch applies the non-nil fields of the patch to an order within its shop.
	Patch(ctx context.Context, shopID, id string, patch *domain.OrderPatch) error

	// Delete removes an order from the given shop.
	Delete(ctx context.Context, shopID, id string) error
}

// OrderFilter narrows order listings. DateFrom and DateTo bound the order
// creation time (inclusive).
type OrderFilter struct {
	Status        *string
	PaymentStatus *string
	CashierID     *string
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PerPage       int
}

// SettingRepository defines the interface for per-shop settings storage.
type SettingRepository interface {
	// Get retrieves a single setting by key for the given shop.
	Get(ctx context.Context, shopID, key string) (*domain.Setting, error)

	// List returns all settings for the given shop.
	List(ctx context.Context, shopID string) ([]domain.Setting, error)

	// Upsert inserts or replaces a single setting.
	Upsert(ctx context.Context, setting *domain.Setting) error

	// UpsertBatch inserts or replaces multiple settings atomically.
	// Either all entries are committed or none are.
	UpsertBatch(ctx context.Context, settings []domain.Setting) error

	// Delete removes a single setting by key for the given shop.
	Delete(ctx context.Context, shopID, key string) error

	// DeleteAll removes every setting for the given shop.
	DeleteAll(ctx context.Context, shopID string) error
}

// CartRepository defines the interface for cart persistence operations.
// Carts are keyed by (shop, user).
type CartRepository interface {
	// Get retrieves the cart for the given shop and user. Returns
	// errors.ErrNotFound if no cart exists.
	Get(ctx context.Context, shopID, userID string) (*domain.Cart, error)

	// Save stores the cart, replacing any existing one.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the cart for the given shop and user.
	Delete(ctx context.Context, shopID, userID string) error
}
