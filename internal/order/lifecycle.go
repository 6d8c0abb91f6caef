package order

import (
	"time"
	"unicode/utf8"

	"github.com/wichananm65/storefront-backend/internal/apperr"
)

const maxReasonLength = 200

// next lists the single forward step allowed from each non-terminal status.
var next = map[string]string{
	StatusPending:    StatusConfirmed,
	StatusConfirmed:  StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

func IsTerminal(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}

// Cancel moves the order to cancelled. Orders that already left the
// warehouse cannot be cancelled.
func (o *Order) Cancel(reason string, now time.Time) error {
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return apperr.InvalidArgument("Cancellation reason cannot exceed %d characters", maxReasonLength)
	}
	switch o.Status {
	case StatusCancelled:
		return apperr.InvalidState("Order is already cancelled")
	case StatusShipped, StatusDelivered:
		return apperr.InvalidState("Cannot cancel shipped or delivered orders")
	}
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.CancellationReason = reason
	o.UpdatedAt = now
	return nil
}

// Advance moves the order one step forward through fulfilment.
func (o *Order) Advance(now time.Time) error {
	to, ok := next[o.Status]
	if !ok {
		return apperr.InvalidState("Cannot advance an order that is %s", o.Status)
	}
	o.Status = to
	if to == StatusDelivered {
		o.DeliveredAt = &now
	}
	o.UpdatedAt = now
	return nil
}
