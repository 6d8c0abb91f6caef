package order

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"

	MethodCreditCard = "credit_card"
)

// Line is the price snapshot of one product taken when the order was placed.
type Line struct {
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode,omitempty"`
	Country   string `json:"country,omitempty"`
}

// Order represents a purchase made by a user. Items and TotalAmount never
// change once the order exists.
type Order struct {
	ID                 string          `json:"id"`
	OrderNumber        string          `json:"orderId"`
	UserID             int             `json:"userId"`
	Items              []Line          `json:"items"`
	ShippingAddress    ShippingAddress `json:"shippingAddress"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	Status             string          `json:"status"`
	PaymentStatus      string          `json:"paymentStatus"`
	PaymentMethod      string          `json:"paymentMethod"`
	Notes              string          `json:"notes,omitempty"`
	TrackingNumber     string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery  *time.Time      `json:"estimatedDelivery,omitempty"`
	DeliveredAt        *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func CustomerName(o Order) string {
	return strings.TrimSpace(o.ShippingAddress.FirstName + " " + o.ShippingAddress.LastName)
}

// OrderAge is the number of started days between creation and now.
func OrderAge(o Order, now time.Time) int {
	d := now.Sub(o.CreatedAt)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(d.Hours() / 24))
}

func (o Order) clone() Order {
	out := o
	out.Items = append([]Line(nil), o.Items...)
	return out
}
