package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	ensureCartQuery = `
		INSERT INTO carts (user_id, last_updated, created_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	getCartQuery     = `SELECT last_updated, created_at FROM carts WHERE user_id = $1`
	lockCartQuery    = getCartQuery + ` FOR UPDATE`
	getCartItemQuery = `
		SELECT product_id, product_name, price, image, quantity
		FROM cart_items
		WHERE user_id = $1
		ORDER BY position
	`
	deleteCartItemsQuery = `DELETE FROM cart_items WHERE user_id = $1`
	insertCartItemQuery  = `
		INSERT INTO cart_items (user_id, product_id, product_name, price, image, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	touchCartQuery = `UPDATE carts SET last_updated = $2 WHERE user_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID int) (Cart, error) {
	if _, err := r.db.ExecContext(ctx, ensureCartQuery, userID, time.Now().UTC()); err != nil {
		return Cart{}, fmt.Errorf("ensure cart: %w", err)
	}
	return load(ctx, r.db, getCartQuery, userID)
}

// Update locks the cart row, applies fn and rewrites the lines in one
// transaction.
func (r *PostgresRepository) Update(ctx context.Context, userID int, fn func(*Cart) error) (Cart, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Cart{}, fmt.Errorf("begin cart tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, ensureCartQuery, userID, time.Now().UTC()); err != nil {
		return Cart{}, fmt.Errorf("ensure cart: %w", err)
	}
	c, err := load(ctx, tx, lockCartQuery, userID)
	if err != nil {
		return Cart{}, err
	}

	if err := fn(&c); err != nil {
		return Cart{}, err
	}

	if _, err := tx.ExecContext(ctx, deleteCartItemsQuery, userID); err != nil {
		return Cart{}, fmt.Errorf("clear cart items: %w", err)
	}
	for pos, l := range c.Items {
		if _, err := tx.ExecContext(ctx, insertCartItemQuery,
			userID, l.ProductID, l.ProductName, l.Price, l.Image, l.Quantity, pos,
		); err != nil {
			return Cart{}, fmt.Errorf("insert cart item %d: %w", l.ProductID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, touchCartQuery, userID, c.LastUpdated); err != nil {
		return Cart{}, fmt.Errorf("touch cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Cart{}, fmt.Errorf("commit cart: %w", err)
	}
	return c, nil
}

func load(ctx context.Context, q queryer, headerQuery string, userID int) (Cart, error) {
	c := Cart{UserID: userID, Items: []Line{}}
	if err := q.QueryRowContext(ctx, headerQuery, userID).Scan(&c.LastUpdated, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, fmt.Errorf("cart for user %d vanished: %w", userID, err)
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}

	rows, err := q.QueryContext(ctx, getCartItemQuery, userID)
	if err != nil {
		return Cart{}, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Price, &l.Image, &l.Quantity); err != nil {
			return Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, l)
	}
	if err := rows.Err(); err != nil {
		return Cart{}, err
	}

	c.Recalculate()
	return c, nil
}
