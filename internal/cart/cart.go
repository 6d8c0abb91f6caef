package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/storefront-backend/internal/money"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// Line is one product in a cart. Name, price and image are a snapshot taken
// when the product was added.
type Line struct {
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Cart holds at most one line per product, in insertion order. TotalItems
// and TotalAmount are recomputed from the lines and never trusted from
// storage.
type Cart struct {
	UserID      int             `json:"userId"`
	Items       []Line          `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	LastUpdated time.Time       `json:"lastUpdated"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func New(userID int, now time.Time) Cart {
	return Cart{
		UserID:      userID,
		Items:       []Line{},
		TotalAmount: decimal.Zero,
		LastUpdated: now,
		CreatedAt:   now,
	}
}

// QuantityOf returns the quantity of productID already in the cart.
func (c Cart) QuantityOf(productID int) int {
	if i := c.index(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Recalculate refreshes every subtotal and both totals from the lines.
func (c *Cart) Recalculate() {
	items, amount := 0, decimal.Zero
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].Price.Mul(decimal.NewFromInt(int64(c.Items[i].Quantity)))
		items += c.Items[i].Quantity
		amount = amount.Add(c.Items[i].Subtotal)
	}
	c.TotalItems = items
	c.TotalAmount = money.RoundCents(amount)
}

func (c Cart) clone() Cart {
	out := c
	out.Items = make([]Line, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

func (c Cart) index(productID int) int {
	for i, l := range c.Items {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// add merges qty of p into the cart. An existing line keeps its stored price
// only while it matches the catalog; otherwise the snapshot is refreshed.
func (c *Cart) add(p product.Product, qty int) {
	if i := c.index(p.ID); i >= 0 {
		l := &c.Items[i]
		l.Quantity += qty
		if !l.Price.Equal(p.Price) {
			l.Price = p.Price
			l.ProductName = p.Name
			l.Image = p.Image
		}
		return
	}
	c.Items = append(c.Items, Line{
		ProductID:   p.ID,
		ProductName: p.Name,
		Price:       p.Price,
		Image:       p.Image,
		Quantity:    qty,
	})
}

// setQuantity replaces the line quantity; zero removes the line. A missing
// line is left alone.
func (c *Cart) setQuantity(productID, qty int) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	if qty == 0 {
		c.remove(productID)
		return
	}
	c.Items[i].Quantity = qty
}

func (c *Cart) remove(productID int) {
	if i := c.index(productID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

func (c *Cart) clear() {
	c.Items = []Line{}
}

func (c *Cart) touch(now time.Time) {
	c.Recalculate()
	c.LastUpdated = now
}
