package postgres

import (
	"context"
	"encoding/json"
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

// OrderRepository implements repository.OrderRepository using PostgreSQL.
// Order lines are denormalized into a JSONB column since they are immutable
// after capture and always read together with the order.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order into the database.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	query := `
		INSERT INTO orders (id, shop_id, order_number, status, items, subtotal, tax, discount, total, payment_method, payment_status, cashier_id, customer_name, order_type, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	ctx, end := database.TraceQuery(ctx, "CreateOrder", query)
	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.ShopID,
		o.OrderNumber,
		o.Status,
		itemsJSON,
		o.Subtotal,
		o.Tax,
		o.Discount,
		o.Total,
		o.PaymentMethod,
		o.PaymentStatus,
		o.CashierID,
		o.CustomerName,
		o.OrderType,
		o.Notes,
		o.CreatedAt,
		o.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("order", "order_number", o.OrderNumber)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetByID retrieves an order belonging to the given shop.
func (r *OrderRepository) GetByID(ctx context.Context, shopID, id string) (*domain.Order, error) {
	query := `
		SELECT id, shop_id, order_number, status, items, subtotal, tax, discount, total, payment_method, payment_status, cashier_id, customer_name, order_type, notes, created_at, updated_at
		FROM orders
		WHERE id = $1 AND shop_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetOrder", query)

	var (
		o         domain.Order
		itemsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, id, shopID).Scan(
		&o.ID,
		&o.ShopID,
		&o.OrderNumber,
		&o.Status,
		&itemsJSON,
		&o.Subtotal,
		&o.Tax,
		&o.Discount,
		&o.Total,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.CashierID,
		&o.CustomerName,
		&o.OrderType,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := unmarshalItems(itemsJSON, &o); err != nil {
		return nil, err
	}

	return &o, nil
}

// List returns orders for the given shop matching the filter, newest first,
// along with the total count before pagination.
func (r *OrderRepository) List(ctx context.Context, shopID string, filter repository.OrderFilter) ([]domain.Order, int, error) {
	conditions := []string{"shop_id = $1"}
	args := []any{shopID}
	argIndex := 2

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argIndex))
		args = append(args, *filter.PaymentStatus)
		argIndex++
	}

	if filter.CashierID != nil {
		conditions = append(conditions, fmt.Sprintf("cashier_id = $%d", argIndex))
		args = append(args, *filter.CashierID)
		argIndex++
	}

	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.DateFrom)
		argIndex++
	}

	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *filter.DateTo)
		argIndex++
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT id, shop_id, order_number, status, items, subtotal, tax, discount, total, payment_method, payment_status, cashier_id, customer_name, order_type, notes, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListOrders", query)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var (
			o         domain.Order
			itemsJSON []byte
		)

		if err := rows.Scan(
			&o.ID,
			&o.ShopID,
			&o.OrderNumber,
			&o.Status,
			&itemsJSON,
			&o.Subtotal,
			&o.Tax,
			&o.Discount,
			&o.Total,
			&o.PaymentMethod,
			&o.PaymentStatus,
			&o.CashierID,
			&o.CustomerName,
			&o.OrderType,
			&o.Notes,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			end(err)
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}

		if err := unmarshalItems(itemsJSON, &o); err != nil {
			end(err)
			return nil, 0, err
		}

		orders = append(orders, o)
	}

	err = rows.Err()
	end(err)
	if err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, totalCount, nil
}

// Patch applies the non-nil fields of the patch to an order within its shop.
// The SET clause is built only from the allow-listed patch fields.
func (r *OrderRepository) Patch(ctx context.Context, shopID, id string, patch *domain.OrderPatch) error {
	var (
		sets     []string
		args     []any
		argIndex = 1
	)

	addSet := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if patch.Status != nil {
		addSet("status", *patch.Status)
	}
	if patch.Items != nil {
		itemsJSON, err := json.Marshal(*patch.Items)
		if err != nil {
			return fmt.Errorf("marshal order items: %w", err)
		}
		addSet("items", itemsJSON)
	}
	if patch.Subtotal != nil {
		addSet("subtotal", *patch.Subtotal)
	}
	if patch.Tax != nil {
		addSet("tax", *patch.Tax)
	}
	if patch.Discount != nil {
		addSet("discount", *patch.Discount)
	}
	if patch.Total != nil {
		addSet("total", *patch.Total)
	}
	if patch.PaymentStatus != nil {
		addSet("payment_status", *patch.PaymentStatus)
	}
	if patch.PaymentMethod != nil {
		addSet("payment_method", *patch.PaymentMethod)
	}
	if patch.CustomerName != nil {
		addSet("customer_name", *patch.CustomerName)
	}
	if patch.Notes != nil {
		addSet("notes", *patch.Notes)
	}

	if len(sets) == 0 {
		return apperrors.InvalidInput("patch contains no updatable fields")
	}

	addSet("updated_at", time.Now().UTC())

	query := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $%d AND shop_id = $%d`,
		strings.Join(sets, ", "), argIndex, argIndex+1)
	args = append(args, id, shopID)

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("patch order: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// Delete removes an order from the given shop.
func (r *OrderRepository) Delete(ctx context.Context, shopID, id string) error {
	query := `DELETE FROM orders WHERE id = $1 AND shop_id = $2`

	ct, err := r.pool.Exec(ctx, query, id, shopID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// unmarshalItems decodes the JSONB items column into the order.
func unmarshalItems(itemsJSON []byte, o *domain.Order) error {
	if len(itemsJSON) == 0 || string(itemsJSON) == "null" {
		o.Items = []domain.OrderItem{}
		return nil
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return fmt.Errorf("unmarshal order items: %w", err)
	}
	return nil
}
