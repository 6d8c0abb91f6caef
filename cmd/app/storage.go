package main

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/config"
	"github.com/wichananm65/storefront-backend/internal/database"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/user"
)

// catalogStore is the product table together with its stock counters.
type catalogStore interface {
	product.Repository
	product.Ledger
}

type stores struct {
	products catalogStore
	users    user.Repository
	carts    cart.Repository
	orders   order.Repository
	db       *sql.DB
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		log.Info("using in-memory storage")
		return &stores{
			products: product.NewInMemoryRepository(nil),
			users:    user.NewInMemoryRepository(nil),
			carts:    cart.NewInMemoryRepository(),
			orders:   order.NewInMemoryRepository(),
		}, nil
	}

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("connected to postgres")
	return &stores{
		products: product.NewPostgresRepository(db),
		users:    user.NewPostgresRepository(db),
		carts:    cart.NewPostgresRepository(db),
		orders:   order.NewPostgresRepository(db),
		db:       db,
	}, nil
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
