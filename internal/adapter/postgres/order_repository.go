package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

const orderColumns = `
	id, items, customer, total::text, status, user_id, kitchen_staff_id, delivery_staff_id,
	estimated_ready_at, is_deleted_by_customer, created_at, updated_at`

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}
	customer, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("failed to marshal customer: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (items, customer, total, status, user_id, created_at, updated_at)
		VALUES ($1::jsonb, $2::jsonb, $3::numeric, $4, $5, $6, $7)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		string(items), string(customer), order.Total.StringFixed(2), order.Status, order.UserID,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	changedBy := "guest"
	if order.UserID != nil {
		changedBy = domain.Identity{UserID: *order.UserID}.Actor()
	}
	if err := insertStatusLog(ctx, tx, order.ID, order.Status, changedBy, order.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("order %d", id))
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if !filter.IncludeHidden {
		where = append(where, "NOT is_deleted_by_customer")
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.queryOrders(ctx, query, args...)
}

func (r *orderRepository) FindDue(ctx context.Context, status domain.Status, before time.Time) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1 AND estimated_ready_at IS NOT NULL AND estimated_ready_at <= $2
		ORDER BY id`
	return r.queryOrders(ctx, query, status, before)
}

// Update is a compare-and-set on status. A staff claim only lands if the
// column is still empty or already holds the same id.
func (r *orderRepository) Update(ctx context.Context, id int64, patch domain.OrderPatch) (*domain.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET status             = $1,
		    kitchen_staff_id   = COALESCE(kitchen_staff_id, $2),
		    delivery_staff_id  = COALESCE(delivery_staff_id, $3),
		    estimated_ready_at = COALESCE($4, estimated_ready_at),
		    updated_at         = $5
		WHERE id = $6
		  AND status = $7
		  AND ($2::bigint IS NULL OR kitchen_staff_id IS NULL OR kitchen_staff_id = $2)
		  AND ($3::bigint IS NULL OR delivery_staff_id IS NULL OR delivery_staff_id = $3)
		RETURNING ` + orderColumns

	order, err := scanOrder(tx.QueryRow(ctx, query,
		patch.Status, patch.KitchenStaffID, patch.DeliveryStaffID, patch.EstimatedReadyAt, patch.At,
		id, patch.ExpectStatus,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.explainMiss(ctx, tx, id, patch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err := insertStatusLog(ctx, tx, id, patch.Status, patch.ChangedBy, patch.At); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}
	return order, nil
}

// explainMiss tells a missing order apart from a lost race.
func (r *orderRepository) explainMiss(ctx context.Context, tx Tx, id int64, patch domain.OrderPatch) error {
	var current domain.Status
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if err != nil {
		return translate(err, fmt.Sprintf("order %d", id))
	}

	msg := "order already claimed by another staff member"
	if current != patch.ExpectStatus {
		msg = "order status changed concurrently"
	}
	return &domain.ConflictError{Current: current, Requested: patch.Status, Message: msg}
}

func (r *orderRepository) HideFromCustomer(ctx context.Context, id int64) error {
	query := `
		UPDATE orders SET is_deleted_by_customer = TRUE, updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'cancelled', 'delivered')
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to hide order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.deleteMiss(ctx, id)
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM orders WHERE id = $1 AND status IN ('pending', 'cancelled', 'delivered')`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.deleteMiss(ctx, id)
	}
	return nil
}

func (r *orderRepository) deleteMiss(ctx context.Context, id int64) error {
	var current domain.Status
	if err := r.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current); err != nil {
		return translate(err, fmt.Sprintf("order %d", id))
	}
	return &domain.ConflictError{Current: current, Message: fmt.Sprintf("order cannot be deleted while %s", current)}
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int64) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var l domain.StatusLog
		if err := rows.Scan(&l.ID, &l.OrderID, &l.Status, &l.ChangedBy, &l.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func insertStatusLog(ctx context.Context, tx Tx, orderID int64, status domain.Status, changedBy string, at time.Time) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, query, orderID, status, changedBy, at); err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func scanOrder(row Row) (*domain.Order, error) {
	var (
		o        domain.Order
		items    []byte
		customer []byte
		total    string
	)
	err := row.Scan(
		&o.ID, &items, &customer, &total, &o.Status, &o.UserID, &o.KitchenStaffID, &o.DeliveryStaffID,
		&o.EstimatedReadyAt, &o.IsDeletedByCustomer, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("failed to decode customer: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("failed to decode total: %w", err)
	}
	return &o, nil
}
