package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product maps to the `products` table. InStock mirrors StockQuantity > 0 and
// is kept in step by every write path.
type Product struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand,omitempty"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	InStock       bool            `json:"inStock"`
	Active        bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// AllowedCategories contains the supported product categories.
var AllowedCategories = []string{
	"Electronics",
	"Wearables",
	"Accessories",
	"Peripherals",
	"Audio",
	"Computing",
}

const lowStockThreshold = 5

// AvailabilityStatus is derived from the stock count and never stored.
func AvailabilityStatus(p Product) string {
	switch {
	case p.StockQuantity <= 0:
		return "Out of Stock"
	case p.StockQuantity <= lowStockThreshold:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

// withStock sets the stock count, clamping at zero, and refreshes InStock.
func (p *Product) withStock(qty int) {
	if qty < 0 {
		qty = 0
	}
	p.StockQuantity = qty
	p.InStock = qty > 0
}

func isAllowedCategory(c string) bool {
	for _, a := range AllowedCategories {
		if a == c {
			return true
		}
	}
	return false
}
