package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/storefront-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	orderColumns = `id, order_number, user_id, items, shipping_address, total_amount, status, payment_status,
		payment_method, notes, tracking_number, estimated_delivery, delivered_at, cancelled_at,
		cancellation_reason, created_at, updated_at`

	insertOrderQuery = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	getOrderByIDQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
	`
	getOrderByNumberQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_number = $1
	`
	listOrdersByUserQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, order_number DESC
	`
	lockOrderQuery   = getOrderByIDQuery + ` FOR UPDATE`
	updateOrderQuery = `
		UPDATE orders
		SET status = $2, payment_status = $3, tracking_number = $4, estimated_delivery = $5,
			delivered_at = $6, cancelled_at = $7, cancellation_reason = $8, updated_at = $9
		WHERE id = $1
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, fmt.Errorf("marshal order items: %w", err)
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return Order{}, fmt.Errorf("marshal shipping address: %w", err)
	}

	_, err = r.db.ExecContext(ctx, insertOrderQuery,
		o.ID, o.OrderNumber, o.UserID, items, address, o.TotalAmount, o.Status, o.PaymentStatus,
		o.PaymentMethod, o.Notes, o.TrackingNumber, o.EstimatedDelivery, o.DeliveredAt, o.CancelledAt,
		o.CancellationReason, o.CreatedAt, o.UpdatedAt,
	)
	if database.IsUniqueViolation(err) {
		return Order{}, ErrDuplicateOrderNumber
	}
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, ErrNotFound
	}
	return r.getOne(ctx, r.db, getOrderByIDQuery, id)
}

func (r *PostgresRepository) FindByOrderNumber(ctx context.Context, number string) (Order, error) {
	return r.getOne(ctx, r.db, getOrderByNumberQuery, number)
}

func (r *PostgresRepository) FindByUser(ctx context.Context, userID int) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, listOrdersByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Mutate locks the order row for the duration of fn.
func (r *PostgresRepository) Mutate(ctx context.Context, id string, fn func(*Order) error) (Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, ErrNotFound
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, fmt.Errorf("begin order tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	o, err := r.getOne(ctx, tx, lockOrderQuery, id)
	if err != nil {
		return Order{}, err
	}
	if err := fn(&o); err != nil {
		return Order{}, err
	}

	if _, err := tx.ExecContext(ctx, updateOrderQuery,
		o.ID, o.Status, o.PaymentStatus, o.TrackingNumber, o.EstimatedDelivery,
		o.DeliveredAt, o.CancelledAt, o.CancellationReason, o.UpdatedAt,
	); err != nil {
		return Order{}, fmt.Errorf("update order: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("commit order: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, q queryRower, query string, arg any) (Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func scanOrder(s rowScanner) (Order, error) {
	var o Order
	var items, address []byte
	var estimated, delivered, cancelled sql.NullTime
	if err := s.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &items, &address, &o.TotalAmount, &o.Status, &o.PaymentStatus,
		&o.PaymentMethod, &o.Notes, &o.TrackingNumber, &estimated, &delivered, &cancelled,
		&o.CancellationReason, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return Order{}, fmt.Errorf("decode shipping address: %w", err)
	}
	o.EstimatedDelivery = timePtr(estimated)
	o.DeliveredAt = timePtr(delivered)
	o.CancelledAt = timePtr(cancelled)
	return o, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
