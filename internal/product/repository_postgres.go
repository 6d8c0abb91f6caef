package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

const productColumns = `id, name, description, category, brand, image, price, stock_quantity, in_stock, is_active, created_at, updated_at`

const (
	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active
		ORDER BY id
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	insertProductQuery = `
		INSERT INTO products (name, description, category, brand, image, price, stock_quantity, in_stock, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at, updated_at
	`
	insertProductWithIDQuery = `
		INSERT INTO products (id, name, description, category, brand, image, price, stock_quantity, in_stock, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	updateProductQuery = `
		UPDATE products
		SET name = $1,
			description = $2,
			category = $3,
			brand = $4,
			image = $5,
			price = $6,
			stock_quantity = $7,
			in_stock = $8,
			is_active = $9,
			updated_at = NOW()
		WHERE id = $10
	`
	softDeleteProductQuery = `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	resetSequenceQuery     = `SELECT setval(pg_get_serial_sequence('products', 'id'), GREATEST((SELECT MAX(id) FROM products), 1))`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, listProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	p.withStock(p.StockQuantity)
	err := r.db.QueryRowContext(ctx, insertProductQuery,
		p.Name,
		p.Description,
		p.Category,
		p.Brand,
		p.Image,
		p.Price,
		p.StockQuantity,
		p.InStock,
		p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, p Product) (Product, error) {
	p.withStock(p.StockQuantity)
	result, err := r.db.ExecContext(ctx, updateProductQuery,
		p.Name,
		p.Description,
		p.Category,
		p.Brand,
		p.Image,
		p.Price,
		p.StockQuantity,
		p.InStock,
		p.Active,
		id,
	)
	if err != nil {
		return Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Product{}, err
	}
	if affected == 0 {
		return Product{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, softDeleteProductQuery, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
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

// Reset deletes all products and inserts the provided list in a single
// transaction. Explicit ids are kept so seeded data has stable ids.
func (r *PostgresRepository) Reset(ctx context.Context, products []Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}

	for _, p := range products {
		p.withStock(p.StockQuantity)
		if p.ID == 0 {
			if _, err := tx.ExecContext(ctx, insertProductQuery,
				p.Name, p.Description, p.Category, p.Brand, p.Image,
				p.Price, p.StockQuantity, p.InStock, p.Active,
			); err != nil {
				return fmt.Errorf("insert product %q: %w", p.Name, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, insertProductWithIDQuery,
			p.ID, p.Name, p.Description, p.Category, p.Brand, p.Image,
			p.Price, p.StockQuantity, p.InStock, p.Active,
		); err != nil {
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, resetSequenceQuery); err != nil {
		return fmt.Errorf("reset product sequence: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(scanner rowScanner) (Product, error) {
	p := Product{}
	var brand sql.NullString
	if err := scanner.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&brand,
		&p.Image,
		&p.Price,
		&p.StockQuantity,
		&p.InStock,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return Product{}, err
	}
	if brand.Valid {
		p.Brand = brand.String
	}
	return p, nil
}
