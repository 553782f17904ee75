package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/pkg/database"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

// ShopRepository implements repository.ShopRepository using PostgreSQL.
type ShopRepository struct {
	pool database.DBTX
}

// NewShopRepository creates a new PostgreSQL-backed shop repository.
func NewShopRepository(pool database.DBTX) *ShopRepository {
	return &ShopRepository{pool: pool}
}

// CreateWithOwner inserts a shop and its owner user inside a single
// transaction. Registration must never leave a shop without an owner or an
// owner without a shop.
func (r *ShopRepository) CreateWithOwner(ctx context.Context, s *domain.Shop, owner *domain.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	shopQuery := `
		INSERT INTO shops (id, name, owner_id, address, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.Exec(ctx, shopQuery,
		s.ID,
		s.Name,
		s.OwnerID,
		s.Address,
		s.Phone,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("shop", "name", s.Name)
		}
		return fmt.Errorf("insert shop: %w", err)
	}

	userQuery := `
		INSERT INTO users (id, shop_id, email, password_hash, name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.Exec(ctx, userQuery,
		owner.ID,
		owner.ShopID,
		owner.Email,
		owner.PasswordHash,
		owner.Name,
		owner.Role,
		owner.IsActive,
		owner.CreatedAt,
		owner.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", owner.Email)
		}
		return fmt.Errorf("insert owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a shop by its ID.
func (r *ShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	query := `
		SELECT id, name, owner_id, address, phone, created_at, updated_at
		FROM shops
		WHERE id = $1`

	var s domain.Shop
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.OwnerID,
		&s.Address,
		&s.Phone,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan shop: %w", err)
	}

	return &s, nil
}

// Update modifies an existing shop in the database.
func (r *ShopRepository) Update(ctx context.Context, s *domain.Shop) error {
	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE shops
		SET name = $1, address = $2, phone = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.pool.Exec(ctx, query,
		s.Name,
		s.Address,
		s.Phone,
		s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update shop: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("shop", s.ID)
	}

	return nil
}
