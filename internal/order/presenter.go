package order

import (
	"time"

	"github.com/wichananm65/storefront-backend/internal/money"
)

// Presenter shapes orders for delivery layer responses.
type Presenter struct {
	now func() time.Time
}

func NewPresenter() *Presenter {
	return &Presenter{now: time.Now}
}

type Response struct {
	Order
	CustomerName   string `json:"customerName"`
	FormattedTotal string `json:"formattedTotal"`
	OrderAge       int    `json:"orderAge"`
}

func (p *Presenter) ToResponse(o Order) Response {
	if o.Items == nil {
		o.Items = []Line{}
	}
	return Response{
		Order:          o,
		CustomerName:   CustomerName(o),
		FormattedTotal: money.Format(o.TotalAmount),
		OrderAge:       OrderAge(o, p.now()),
	}
}

func (p *Presenter) ToResponses(orders []Order) []Response {
	out := make([]Response, 0, len(orders))
	for _, o := range orders {
		out = append(out, p.ToResponse(o))
	}
	return out
}
