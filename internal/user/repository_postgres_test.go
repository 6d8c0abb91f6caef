package user

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPostgresCreate_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Asha", "Rao", "asha@example.com", "hash", RoleCustomer, true, now, now).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = repo.Create(context.Background(), User{
		FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Password: "hash",
		Role: RoleCustomer, Active: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != ErrEmailExists {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	cols := []string{"id", "first_name", "last_name", "email", "password", "role", "is_active", "last_login", "created_at", "updated_at"}
	mock.ExpectQuery("WHERE email = \\$1").WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(3, "Asha", "Rao", "asha@example.com", "hash", "customer", true, nil, now, now))
	mock.ExpectQuery("WHERE email = \\$1").WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(cols))

	u, err := repo.GetByEmail(context.Background(), "asha@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if u.ID != 3 || u.LastLogin != nil {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := repo.GetByEmail(context.Background(), "nobody@example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
