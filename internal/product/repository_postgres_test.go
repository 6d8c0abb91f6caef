package product

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

var productRowColumns = []string{"id", "name", "description", "category", "brand", "image", "price", "stock_quantity", "in_stock", "is_active", "created_at", "updated_at"}

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresList(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows(productRowColumns).
		AddRow(1, "Wireless Bluetooth Headphones", "d", "Electronics", "AudioTech", "https://x/1", "8299.00", 50, true, true, now, now).
		AddRow(2, "Smart Fitness Watch", "d", "Wearables", nil, "https://x/2", "20799.50", 0, false, true, now, now)
	mock.ExpectQuery("FROM products\\s+WHERE is_active").WillReturnRows(rows)

	all, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 products, got %d", len(all))
	}
	if !all[1].Price.Equal(decimal.RequireFromString("20799.5")) {
		t.Fatalf("unexpected price %s", all[1].Price)
	}
	if all[1].Brand != "" || all[0].Brand != "AudioTech" {
		t.Fatalf("unexpected brands %q %q", all[0].Brand, all[1].Brand)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM products\\s+WHERE id = \\$1").WithArgs(9).WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), 9); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDelete_IsSoft(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("UPDATE products SET is_active = FALSE").WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET is_active = FALSE").WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 3); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := repo.Delete(context.Background(), 4); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStockTx_LocksThenDecrements(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(sqlmock.AnyArg()).WillReturnRows(
		sqlmock.NewRows(productRowColumns).
			AddRow(1, "P", "d", "Electronics", "", "https://x/1", "100", 5, true, true, now, now),
	)
	mock.ExpectExec("GREATEST\\(stock_quantity - \\$2, 0\\)").WithArgs(1, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.Begin(context.Background(), []int{1})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	p, err := tx.Get(1)
	if err != nil || p.StockQuantity != 5 {
		t.Fatalf("unexpected locked product %+v err=%v", p, err)
	}
	if _, err := tx.Get(2); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unlocked id, got %v", err)
	}
	if err := tx.Decrease(1, 3); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if p, _ := tx.Get(1); p.StockQuantity != 2 {
		t.Fatalf("expected pending stock 2, got %d", p.StockQuantity)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback after commit should be a no-op: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresIncrease(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("GREATEST\\(stock_quantity \\+ \\$2, 0\\)").WithArgs(1, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("GREATEST\\(stock_quantity \\+ \\$2, 0\\)").WithArgs(7, 2).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Increase(context.Background(), 1, 2); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := repo.Increase(context.Background(), 7, 2); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
