// Package events publishes order lifecycle events.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderPlaced    = "order.placed"
	OrderCancelled = "order.cancelled"
)

type Item struct {
	ProductID int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderEvent is the payload written for every order state change that other
// systems care about.
type OrderEvent struct {
	Type        string          `json:"type"`
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	UserID      int             `json:"userId"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []Item          `json:"items"`
	Reason      string          `json:"reason,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
	Close() error
}
