package product

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront-backend/internal/apperr"
)

// Input is the admin payload for creating or replacing a product.
type Input struct {
	Name          string          `json:"name" validate:"required,max=100"`
	Description   string          `json:"description" validate:"required,max=1000"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category" validate:"required"`
	Brand         string          `json:"brand" validate:"max=100"`
	Image         string          `json:"image" validate:"required,url"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
	Active        *bool           `json:"isActive"`
}

// check covers the rules struct tags cannot express.
func (in Input) check() map[string]string {
	errs := map[string]string{}
	if !in.Price.IsPositive() {
		errs["price"] = "price must be greater than 0"
	}
	if in.Category != "" && !isAllowedCategory(in.Category) {
		errs["category"] = "invalid category"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (in Input) product() Product {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return Product{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Category:      in.Category,
		Brand:         in.Brand,
		Image:         in.Image,
		StockQuantity: in.StockQuantity,
		Active:        active,
	}
}

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch products")
	}
	return products, nil
}

// GetByID returns an active product. Inactive products are reported as not
// found, the same as missing ones.
func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) || (err == nil && !p.Active) {
		return Product{}, apperr.NotFound("Product not found")
	}
	if err != nil {
		return Product{}, apperr.Internal(err, "Failed to fetch product")
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	created, err := s.repo.Create(ctx, in.product())
	if err != nil {
		return Product{}, apperr.Internal(err, "Failed to create product")
	}
	s.log.Info("product created", zap.Int("productId", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int, in Input) (Product, error) {
	updated, err := s.repo.Update(ctx, id, in.product())
	if errors.Is(err, ErrNotFound) {
		return Product{}, apperr.NotFound("Product not found")
	}
	if err != nil {
		return Product{}, apperr.Internal(err, "Failed to update product")
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("Product not found")
	}
	if err != nil {
		return apperr.Internal(err, "Failed to delete product")
	}
	s.log.Info("product deactivated", zap.Int("productId", id))
	return nil
}

// Seed replaces all products with the given list.
func (s *Service) Seed(ctx context.Context, products []Product) error {
	if err := s.repo.Reset(ctx, products); err != nil {
		return err
	}
	s.log.Info("catalog seeded", zap.Int("count", len(products)))
	return nil
}
