package cart

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/storefront-backend/internal/apperr"
	"github.com/wichananm65/storefront-backend/internal/metrics"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// Catalog resolves active products. Unknown or inactive products must come
// back as an apperr NotFound.
type Catalog interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
}

// Service orchestrates cart operations.
type Service struct {
	repo    Repository
	catalog Catalog
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo Repository, catalog Catalog, log *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: repo, catalog: catalog, log: log, metrics: m, now: time.Now}
}

func (s *Service) Get(ctx context.Context, userID int) (Cart, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return Cart{}, apperr.Internal(err, "Failed to fetch cart")
	}
	return c, nil
}

// AddItem adds quantity of a product, refusing to go past the stock on hand
// when combined with what the cart already holds.
func (s *Service) AddItem(ctx context.Context, userID, productID, quantity int) (Cart, error) {
	if quantity < 1 {
		return Cart{}, apperr.InvalidArgument("Quantity must be at least 1")
	}
	p, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return Cart{}, err
	}

	return s.mutate(ctx, userID, "add", func(c *Cart) error {
		if c.QuantityOf(p.ID)+quantity > p.StockQuantity {
			return apperr.InsufficientStock("Insufficient stock. Available: %d", p.StockQuantity)
		}
		c.add(p, quantity)
		return nil
	})
}

// UpdateItemQuantity sets the quantity of an existing line; zero removes it.
// The stored price is kept and no stock check is made.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID, quantity int) (Cart, error) {
	if quantity < 0 {
		return Cart{}, apperr.InvalidArgument("Quantity cannot be negative")
	}
	return s.mutate(ctx, userID, "update", func(c *Cart) error {
		c.setQuantity(productID, quantity)
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID int) (Cart, error) {
	return s.mutate(ctx, userID, "remove", func(c *Cart) error {
		c.remove(productID)
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, userID int) (Cart, error) {
	return s.mutate(ctx, userID, "clear", func(c *Cart) error {
		c.clear()
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, userID int, op string, fn func(*Cart) error) (Cart, error) {
	c, err := s.repo.Update(ctx, userID, func(c *Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		c.touch(s.now())
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return Cart{}, err
		}
		s.log.Error("cart update failed", zap.String("op", op), zap.Int("userId", userID), zap.Error(err))
		return Cart{}, apperr.Internal(err, "Failed to update cart")
	}
	s.metrics.CartMutation(op)
	return c, nil
}
