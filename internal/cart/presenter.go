package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/storefront-backend/internal/money"
)

// Presenter shapes carts for delivery layer responses.
type Presenter struct{}

func NewPresenter() *Presenter {
	return &Presenter{}
}

type Response struct {
	UserID         int             `json:"userId"`
	Items          []Line          `json:"items"`
	TotalItems     int             `json:"totalItems"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	FormattedTotal string          `json:"formattedTotal"`
	LastUpdated    time.Time       `json:"lastUpdated"`
}

func (p *Presenter) ToResponse(c Cart) Response {
	items := c.Items
	if items == nil {
		items = []Line{}
	}
	return Response{
		UserID:         c.UserID,
		Items:          items,
		TotalItems:     c.TotalItems,
		TotalAmount:    c.TotalAmount,
		FormattedTotal: money.Format(c.TotalAmount),
		LastUpdated:    c.LastUpdated,
	}
}
