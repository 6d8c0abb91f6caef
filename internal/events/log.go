package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher records events in the service log. It is used when no broker
// is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, e OrderEvent) error {
	p.log.Info("order event",
		zap.String("type", e.Type),
		zap.String("orderId", e.OrderID),
		zap.Int("userId", e.UserID),
		zap.String("status", e.Status),
		zap.String("totalAmount", e.TotalAmount.StringFixed(2)),
		zap.Int("items", len(e.Items)),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
