package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tillhouse/pos/internal/domain"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

const keyPrefix = "cart:"

// cartKey builds the Redis key for a (shop, user) pair. Scoping the key by
// shop keeps carts from different tenants apart even for the same user ID.
func cartKey(shopID, userID string) string {
	return keyPrefix + shopID + ":" + userID
}

// CartRepository implements repository.CartRepository using Redis.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves the cart for the given shop and user from Redis.
func (r *CartRepository) Get(ctx context.Context, shopID, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(shopID, userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", userID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

// Save persists a cart to Redis with the configured TTL.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, cartKey(cart.ShopID, cart.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// Delete removes the cart for the given shop and user from Redis.
func (r *CartRepository) Delete(ctx context.Context, shopID, userID string) error {
	if err := r.client.Del(ctx, cartKey(shopID, userID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}
