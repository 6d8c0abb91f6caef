package order

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront-backend/internal/apperr"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/events"
	"github.com/wichananm65/storefront-backend/internal/metrics"
	"github.com/wichananm65/storefront-backend/internal/money"
	"github.com/wichananm65/storefront-backend/internal/product"
)

const (
	minAddressLength   = 5
	maxNumberAttempts  = 20
	notFoundOrNotOwned = "Order not found or access denied"
)

type Item struct {
	ProductID int
	Quantity  int
}

type PlaceInput struct {
	Address   ShippingAddress
	Items     []Item
	Notes     string
	ClearCart bool
}

// CartClearer empties a user's cart after a successful checkout.
type CartClearer interface {
	Clear(ctx context.Context, userID int) (cart.Cart, error)
}

// Service provides business logic for orders.
type Service struct {
	repo      Repository
	ledger    product.Ledger
	carts     CartClearer
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
	newNumber func(time.Time) string
}

func NewService(repo Repository, ledger product.Ledger, carts CartClearer, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledger,
		carts:     carts,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
		newNumber: NewOrderNumber,
	}
}

// PlaceOrder validates every item against the stock ledger before touching
// any counter, then decrements all of them and stores the order. Either the
// whole order goes through or no stock moves.
func (s *Service) PlaceOrder(ctx context.Context, userID int, in PlaceInput) (Order, error) {
	address, err := normalizeAddress(in.Address)
	if err != nil {
		return Order{}, s.reject(err)
	}
	if len(in.Items) == 0 {
		return Order{}, s.reject(apperr.InvalidArgument("Cart items are required"))
	}
	ids := make([]int, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return Order{}, s.reject(apperr.InvalidArgument("Quantity for product %d must be at least 1", it.ProductID))
		}
		ids = append(ids, it.ProductID)
	}

	tx, err := s.ledger.Begin(ctx, ids)
	if err != nil {
		return Order{}, s.reject(apperr.Internal(err, "Failed to place order"))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lines := make([]Line, 0, len(in.Items))
	requested := make(map[int]int, len(in.Items))
	total := decimal.Zero
	for _, it := range in.Items {
		p, err := tx.Get(it.ProductID)
		if errors.Is(err, product.ErrNotFound) || (err == nil && !p.Active) {
			return Order{}, s.reject(apperr.NotFound("Product with ID %d not found", it.ProductID))
		}
		if err != nil {
			return Order{}, s.reject(apperr.Internal(err, "Failed to place order"))
		}

		requested[p.ID] += it.Quantity
		if requested[p.ID] > p.StockQuantity {
			return Order{}, s.reject(apperr.InsufficientStock(
				"Insufficient stock for %s. Available: %d, Requested: %d", p.Name, p.StockQuantity, requested[p.ID]))
		}

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		lines = append(lines, Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    it.Quantity,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}

	// an abandoned request must leave stock untouched
	if err := ctx.Err(); err != nil {
		return Order{}, s.reject(apperr.Internal(err, "Failed to place order"))
	}
	for _, l := range lines {
		if err := tx.Decrease(l.ProductID, l.Quantity); err != nil {
			return Order{}, s.reject(apperr.Internal(err, "Failed to place order"))
		}
	}
	if err := tx.Commit(); err != nil {
		return Order{}, s.reject(apperr.Internal(err, "Failed to place order"))
	}

	now := s.now()
	o := Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           lines,
		ShippingAddress: address,
		TotalAmount:     money.RoundCents(total),
		Status:          StatusConfirmed,
		PaymentStatus:   PaymentPending,
		PaymentMethod:   MethodCreditCard,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	saved, err := s.create(ctx, o)
	if err != nil {
		s.restock(ctx, lines)
		s.log.Error("order persist failed", zap.Int("userId", userID), zap.Error(err))
		return Order{}, s.reject(apperr.Internal(err, "Failed to place order"))
	}

	s.log.Info("order placed",
		zap.String("orderId", saved.OrderNumber),
		zap.Int("userId", userID),
		zap.String("customer", CustomerName(saved)),
		zap.Int("items", len(saved.Items)),
		zap.String("total", money.Format(saved.TotalAmount)),
	)
	s.metrics.OrderPlaced(saved.TotalAmount.InexactFloat64())
	s.publish(ctx, events.OrderPlaced, saved)

	if in.ClearCart && s.carts != nil {
		if _, err := s.carts.Clear(ctx, userID); err != nil {
			s.log.Warn("clear cart after checkout failed", zap.Int("userId", userID), zap.Error(err))
		}
	}
	return saved, nil
}

// create assigns a business order id, retrying when the store reports that
// the random suffix is already taken.
func (s *Service) create(ctx context.Context, o Order) (Order, error) {
	var err error
	for range maxNumberAttempts {
		o.OrderNumber = s.newNumber(o.CreatedAt)
		var saved Order
		saved, err = s.repo.Create(ctx, o)
		if !errors.Is(err, ErrDuplicateOrderNumber) {
			return saved, err
		}
	}
	return Order{}, err
}

func (s *Service) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	orders, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch orders")
	}
	return orders, nil
}

// Cancel cancels an order owned by requester and returns its items to stock.
// ref may be either the internal id or the business order id.
func (s *Service) Cancel(ctx context.Context, requester int, ref, reason string) (Order, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return Order{}, apperr.InvalidArgument("Cancellation reason cannot exceed %d characters", maxReasonLength)
	}
	found, err := s.find(ctx, ref)
	if err != nil {
		return Order{}, err
	}

	cancelled, err := s.repo.Mutate(ctx, found.ID, func(o *Order) error {
		if !ownedBy(*o, requester) {
			return apperr.AccessDenied(notFoundOrNotOwned)
		}
		return o.Cancel(reason, s.now())
	})
	if err != nil {
		return Order{}, s.lifecycleError(err, "Failed to cancel order")
	}

	s.restock(ctx, cancelled.Items)
	reasonText := cancelled.CancellationReason
	if reasonText == "" {
		reasonText = "No reason provided"
	}
	s.log.Info("order cancelled",
		zap.String("orderId", cancelled.OrderNumber),
		zap.Int("userId", requester),
		zap.String("reason", reasonText),
	)
	s.metrics.OrderCancelled()
	s.publish(ctx, events.OrderCancelled, cancelled)
	return cancelled, nil
}

// Advance moves an order one fulfilment step forward. It is an operator
// action, so ownership is not checked.
func (s *Service) Advance(ctx context.Context, ref string) (Order, error) {
	found, err := s.find(ctx, ref)
	if err != nil {
		return Order{}, err
	}
	advanced, err := s.repo.Mutate(ctx, found.ID, func(o *Order) error {
		return o.Advance(s.now())
	})
	if err != nil {
		return Order{}, s.lifecycleError(err, "Failed to update order")
	}
	s.log.Info("order advanced", zap.String("orderId", advanced.OrderNumber), zap.String("status", advanced.Status))
	return advanced, nil
}

// find resolves ref by the form it looks like first and falls back to the
// other one.
func (s *Service) find(ctx context.Context, ref string) (Order, error) {
	lookups := []func(context.Context, string) (Order, error){s.repo.FindByOrderNumber, s.repo.FindByID}
	if _, err := uuid.Parse(ref); err == nil {
		lookups[0], lookups[1] = lookups[1], lookups[0]
	}
	for _, lookup := range lookups {
		o, err := lookup(ctx, ref)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Order{}, apperr.Internal(err, "Failed to fetch order")
		}
	}
	return Order{}, apperr.NotFound(notFoundOrNotOwned)
}

func (s *Service) lifecycleError(err error, message string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(notFoundOrNotOwned)
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return apperr.Internal(err, message)
}

// restock returns quantities to the ledger. It runs even when the request
// context is already cancelled.
func (s *Service) restock(ctx context.Context, lines []Line) {
	ctx = context.WithoutCancel(ctx)
	for _, l := range lines {
		if err := s.ledger.Increase(ctx, l.ProductID, l.Quantity); err != nil {
			s.log.Error("restock failed", zap.Int("productId", l.ProductID), zap.Int("quantity", l.Quantity), zap.Error(err))
		}
	}
}

func (s *Service) publish(ctx context.Context, kind string, o Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), toEvent(kind, o, s.now())); err != nil {
		s.log.Warn("publish order event failed", zap.String("type", kind), zap.String("orderId", o.OrderNumber), zap.Error(err))
	}
}

func (s *Service) reject(err error) error {
	s.metrics.OrderRejected(apperr.KindOf(err).String())
	return err
}

func toEvent(kind string, o Order, now time.Time) events.OrderEvent {
	items := make([]events.Item, 0, len(o.Items))
	for _, l := range o.Items {
		items = append(items, events.Item{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price})
	}
	return events.OrderEvent{
		Type:        kind,
		ID:          uuid.NewString(),
		OrderID:     o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Items:       items,
		Reason:      o.CancellationReason,
		OccurredAt:  now,
	}
}

// ownedBy compares owner ids in their canonical decimal form.
func ownedBy(o Order, requester int) bool {
	return strconv.Itoa(o.UserID) == strconv.Itoa(requester)
}

func normalizeAddress(a ShippingAddress) (ShippingAddress, error) {
	out := ShippingAddress{
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		Address:   strings.TrimSpace(a.Address),
		City:      strings.TrimSpace(a.City),
		State:     strings.TrimSpace(a.State),
		ZipCode:   strings.TrimSpace(a.ZipCode),
		Country:   strings.TrimSpace(a.Country),
	}
	switch {
	case out.FirstName == "":
		return ShippingAddress{}, apperr.InvalidArgument("First name is required")
	case out.LastName == "":
		return ShippingAddress{}, apperr.InvalidArgument("Last name is required")
	case utf8.RuneCountInString(out.Address) < minAddressLength:
		return ShippingAddress{}, apperr.InvalidArgument("Address must be at least %d characters long", minAddressLength)
	}
	return out, nil
}
