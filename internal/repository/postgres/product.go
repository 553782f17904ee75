package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/internal/repository"
	"github.com/tillhouse/pos/pkg/database"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, shop_id, name, description, category, price, image_url, is_available, stock_quantity, low_stock_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.ShopID,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.ImageURL,
		p.IsAvailable,
		p.StockQuantity,
		p.LowStockThreshold,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "name", p.Name)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product belonging to the given shop.
func (r *ProductRepository) GetByID(ctx context.Context, shopID, id string) (*domain.Product, error) {
	query := `
		SELECT id, shop_id, name, description, category, price, image_url, is_available, stock_quantity, low_stock_threshold, created_at, updated_at
		FROM products
		WHERE id = $1 AND shop_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id, shopID).Scan(
		&p.ID,
		&p.ShopID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.ImageURL,
		&p.IsAvailable,
		&p.StockQuantity,
		&p.LowStockThreshold,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &p, nil
}

// ListByShop returns all products for the given shop matching the filter.
func (r *ProductRepository) ListByShop(ctx context.Context, shopID string, filter repository.ProductFilter) ([]domain.Product, error) {
	conditions := []string{"shop_id = $1"}
	args := []any{shopID}
	argIndex := 2

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.AvailableOnly {
		conditions = append(conditions, "is_available = true")
	}

	query := fmt.Sprintf(`
		SELECT id, shop_id, name, description, category, price, image_url, is_available, stock_quantity, low_stock_threshold, created_at, updated_at
		FROM products
		WHERE %s
		ORDER BY category, name`,
		strings.Join(conditions, " AND "),
	)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		end(err)
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.ShopID,
			&p.Name,
			&p.Description,
			&p.Category,
			&p.Price,
			&p.ImageURL,
			&p.IsAvailable,
			&p.StockQuantity,
			&p.LowStockThreshold,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			end(err)
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	err = rows.Err()
	end(err)
	if err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// Update modifies an existing product within its shop.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, description = $2, category = $3, price = $4, image_url = $5, is_available = $6,
		    stock_quantity = $7, low_stock_threshold = $8, updated_at = $9
		WHERE id = $10 AND shop_id = $11`

	ct, err := r.pool.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.ImageURL,
		p.IsAvailable,
		p.StockQuantity,
		p.LowStockThreshold,
		p.UpdatedAt,
		p.ID,
		p.ShopID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// Delete removes a product from the given shop.
func (r *ProductRepository) Delete(ctx context.Context, shopID, id string) error {
	query := `DELETE FROM products WHERE id = $1 AND shop_id = $2`

	ct, err := r.pool.Exec(ctx, query, id, shopID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}
