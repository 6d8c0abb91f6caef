package product

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const (
	lockProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1::int[])
		ORDER BY id
		FOR UPDATE
	`
	decreaseStockQuery = `
		UPDATE products
		SET stock_quantity = GREATEST(stock_quantity - $2, 0),
			in_stock = GREATEST(stock_quantity - $2, 0) > 0,
			updated_at = NOW()
		WHERE id = $1
	`
	increaseStockQuery = `
		UPDATE products
		SET stock_quantity = GREATEST(stock_quantity + $2, 0),
			in_stock = GREATEST(stock_quantity + $2, 0) > 0,
			updated_at = NOW()
		WHERE id = $1
	`
)

// Begin opens a transaction and takes row locks on every requested product.
// Rows are locked in id order so two orders touching the same products
// cannot deadlock.
func (r *PostgresRepository) Begin(ctx context.Context, ids []int) (StockTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin stock tx: %w", err)
	}

	rows, err := tx.QueryContext(ctx, lockProductsQuery, pq.Array(sortedUnique(ids)))
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	locked := make(map[int]Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("scan locked product: %w", err)
		}
		locked[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return &postgresTx{ctx: ctx, tx: tx, locked: locked}, nil
}

func (r *PostgresRepository) Decrease(ctx context.Context, id, qty int) error {
	return r.exec(ctx, decreaseStockQuery, id, qty)
}

func (r *PostgresRepository) Increase(ctx context.Context, id, qty int) error {
	return r.exec(ctx, increaseStockQuery, id, qty)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, id, qty int) error {
	result, err := r.db.ExecContext(ctx, query, id, qty)
	if err != nil {
		return fmt.Errorf("adjust stock for product %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type postgresTx struct {
	ctx    context.Context
	tx     *sql.Tx
	locked map[int]Product
	done   bool
}

func (t *postgresTx) Get(id int) (Product, error) {
	if t.done {
		return Product{}, ErrTxDone
	}
	p, ok := t.locked[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (t *postgresTx) Decrease(id, qty int) error {
	if t.done {
		return ErrTxDone
	}
	p, ok := t.locked[id]
	if !ok {
		return ErrNotFound
	}
	if _, err := t.tx.ExecContext(t.ctx, decreaseStockQuery, id, qty); err != nil {
		return fmt.Errorf("decrease stock for product %d: %w", id, err)
	}
	p.withStock(p.StockQuantity - qty)
	t.locked[id] = p
	return nil
}

func (t *postgresTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	return t.tx.Commit()
}

func (t *postgresTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}
