package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/pkg/database"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

// SettingRepository implements repository.SettingRepository using PostgreSQL.
// Settings are keyed by (shop_id, key).
type SettingRepository struct {
	pool database.DBTX
}

// NewSettingRepository creates a new PostgreSQL-backed setting repository.
func NewSettingRepository(pool database.DBTX) *SettingRepository {
	return &SettingRepository{pool: pool}
}

// Get retrieves a single setting by key for the given shop.
func (r *SettingRepository) Get(ctx context.Context, shopID, key string) (*domain.Setting, error) {
	query := `
		SELECT shop_id, key, value, updated_at
		FROM settings
		WHERE shop_id = $1 AND key = $2`

	var (
		s     domain.Setting
		value []byte
	)
	err := r.pool.QueryRow(ctx, query, shopID, key).Scan(
		&s.ShopID,
		&s.Key,
		&value,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan setting: %w", err)
	}
	s.Value = json.RawMessage(value)

	return &s, nil
}

// List returns all settings for the given shop.
func (r *SettingRepository) List(ctx context.Context, shopID string) ([]domain.Setting, error) {
	query := `
		SELECT shop_id, key, value, updated_at
		FROM settings
		WHERE shop_id = $1
		ORDER BY key`

	rows, err := r.pool.Query(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make([]domain.Setting, 0)
	for rows.Next() {
		var (
			s     domain.Setting
			value []byte
		)
		if err := rows.Scan(&s.ShopID, &s.Key, &value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting row: %w", err)
		}
		s.Value = json.RawMessage(value)
		settings = append(settings, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setting rows: %w", err)
	}

	return settings, nil
}

const upsertSettingQuery = `
	INSERT INTO settings (shop_id, key, value, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (shop_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// Upsert inserts or replaces a single setting.
func (r *SettingRepository) Upsert(ctx context.Context, s *domain.Setting) error {
	s.UpdatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, upsertSettingQuery, s.ShopID, s.Key, []byte(s.Value), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}

	return nil
}

// UpsertBatch inserts or replaces multiple settings inside a single
// transaction, so a batch update is all-or-nothing.
func (r *SettingRepository) UpsertBatch(ctx context.Context, settings []domain.Setting) error {
	if len(settings) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for _, s := range settings {
		if _, err := tx.Exec(ctx, upsertSettingQuery, s.ShopID, s.Key, []byte(s.Value), now); err != nil {
			return fmt.Errorf("upsert setting %q: %w", s.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes a single setting by key for the given shop.
func (r *SettingRepository) Delete(ctx context.Context, shopID, key string) error {
	query := `DELETE FROM settings WHERE shop_id = $1 AND key = $2`

	ct, err := r.pool.Exec(ctx, query, shopID, key)
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("setting", key)
	}

	return nil
}

// DeleteAll removes every setting for the given shop.
func (r *SettingRepository) DeleteAll(ctx context.Context, shopID string) error {
	query := `DELETE FROM settings WHERE shop_id = $1`

	if _, err := r.pool.Exec(ctx, query, shopID); err != nil {
		return fmt.Errorf("delete all settings: %w", err)
	}

	return nil
}
