package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillhouse/pos/internal/domain"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCartRepository(client, 24*time.Hour)
	return repo, mr
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		ShopID: "shop-001",
		UserID: "user-001",
		Items: []domain.CartItem{
			{ProductID: "prod-1", Name: "Espresso", Price: 250, Quantity: 2, Total: 500},
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)

	require.NoError(t, mr.Set("cart:shop-001:user-001", string(data)))

	got, err := repo.Get(context.Background(), cart.ShopID, cart.UserID)
	require.NoError(t, err)
	assert.Equal(t, cart.ShopID, got.ShopID)
	assert.Equal(t, cart.UserID, got.UserID)
	assert.Equal(t, cart.Version, got.Version)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "prod-1", got.Items[0].ProductID)
	assert.Equal(t, int64(250), got.Items[0].Price)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background(), "shop-001", "nonexistent-user")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Get_InvalidJSON(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, mr.Set("cart:shop-001:user-bad", "{{not-valid-json"))

	got, err := repo.Get(context.Background(), "shop-001", "user-bad")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestCartRepository_Get_IsShopScoped(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	// The same user ID under another shop must not see this cart.
	_, err := repo.Get(context.Background(), "shop-002", cart.UserID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Save_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	err := repo.Save(context.Background(), cart)
	require.NoError(t, err)

	assert.True(t, mr.Exists("cart:shop-001:user-001"))

	raw, err := mr.Get("cart:shop-001:user-001")
	require.NoError(t, err)

	var stored domain.Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, cart.ShopID, stored.ShopID)
	assert.Equal(t, cart.UserID, stored.UserID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "prod-1", stored.Items[0].ProductID)
}

func TestCartRepository_Save_TTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	err := repo.Save(context.Background(), cart)
	require.NoError(t, err)

	ttl := mr.TTL("cart:shop-001:user-001")
	assert.True(t, ttl > 23*time.Hour, "expected TTL > 23h, got %v", ttl)
	assert.True(t, ttl <= 24*time.Hour, "expected TTL <= 24h, got %v", ttl)
}

func TestCartRepository_Delete_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	err := repo.Save(context.Background(), cart)
	require.NoError(t, err)
	assert.True(t, mr.Exists("cart:shop-001:user-001"))

	err = repo.Delete(context.Background(), cart.ShopID, cart.UserID)
	require.NoError(t, err)

	assert.False(t, mr.Exists("cart:shop-001:user-001"))
}

func TestCartRepository_Delete_NonExistent(t *testing.T) {
	repo, _ := setupTestRedis(t)

	// Deleting a key that doesn't exist should not return an error.
	err := repo.Delete(context.Background(), "shop-001", "nonexistent-user")
	assert.NoError(t, err)
}
