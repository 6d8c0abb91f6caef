package order

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront-backend/internal/apperr"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/events"
	"github.com/wichananm65/storefront-backend/internal/metrics"
	"github.com/wichananm65/storefront-backend/internal/product"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

// tick returns a strictly increasing time so orders sort deterministically.
func (c *clock) tick() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	catalog *product.InMemoryRepository
	repo    *InMemoryRepository
	carts   *cart.Service
	pub     *recordingPublisher
	svc     *Service
}

func newFixture(t *testing.T, products ...product.Product) *fixture {
	t.Helper()
	catalog := product.NewInMemoryRepository(products)
	repo := NewInMemoryRepository()
	carts := cart.NewService(cart.NewInMemoryRepository(), product.NewService(catalog, zap.NewNop()), zap.NewNop(), nil)
	pub := &recordingPublisher{}
	svc := NewService(repo, catalog, carts, pub, metrics.New(), zap.NewNop())
	clk := &clock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	svc.now = clk.tick
	return &fixture{catalog: catalog, repo: repo, carts: carts, pub: pub, svc: svc}
}

func stocked(id int, name string, price int64, stock int) product.Product {
	return product.Product{ID: id, Name: name, Price: decimal.NewFromInt(price), StockQuantity: stock, Active: true}
}

func (f *fixture) stock(t *testing.T, id int) int {
	t.Helper()
	p, err := f.catalog.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func address() ShippingAddress {
	return ShippingAddress{FirstName: " Asha ", LastName: "Rao", Address: "  12 MG Road ", City: "Pune"}
}

func place(items ...Item) PlaceInput {
	return PlaceInput{Address: address(), Items: items}
}

func TestPlaceOrder_SnapshotsPriceAndDecrementsStock(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))

	o, err := f.svc.PlaceOrder(context.Background(), 7, place(Item{ProductID: 1, Quantity: 3}))
	require.NoError(t, err)

	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 2, f.stock(t, 1))
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, MethodCreditCard, o.PaymentMethod)
	assert.Regexp(t, orderNumberPattern, o.OrderNumber)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "KNV261019"))
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "Asha", o.ShippingAddress.FirstName)
	assert.Equal(t, "12 MG Road", o.ShippingAddress.Address)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "P", o.Items[0].ProductName)
	assert.Equal(t, []string{events.OrderPlaced}, f.pub.types())

	// later catalog changes do not reach the stored order
	_, err = f.catalog.Update(context.Background(), 1, stocked(1, "P renamed", 999, 2))
	require.NoError(t, err)
	stored, err := f.repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "P", stored.Items[0].ProductName)
	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(300)))
}

func TestPlaceOrder_UnknownProductLeavesStockUntouched(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))

	_, err := f.svc.PlaceOrder(context.Background(), 7, place(
		Item{ProductID: 1, Quantity: 3},
		Item{ProductID: 99, Quantity: 1},
	))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Product with ID 99 not found", apperr.Message(err))
	assert.Equal(t, 5, f.stock(t, 1))
	assert.Empty(t, f.pub.types())
}

func TestPlaceOrder_InsufficientStockIsAllOrNothing(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5), stocked(2, "R", 40, 10))

	_, err := f.svc.PlaceOrder(context.Background(), 7, place(
		Item{ProductID: 2, Quantity: 2},
		Item{ProductID: 1, Quantity: 6},
	))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))
	assert.Equal(t, "Insufficient stock for P. Available: 5, Requested: 6", apperr.Message(err))
	assert.Equal(t, 10, f.stock(t, 2))
	assert.Equal(t, 5, f.stock(t, 1))
}

func TestPlaceOrder_RepeatedProductChecksCombinedQuantity(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))

	_, err := f.svc.PlaceOrder(context.Background(), 7, place(
		Item{ProductID: 1, Quantity: 3},
		Item{ProductID: 1, Quantity: 3},
	))
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))
	assert.Equal(t, 5, f.stock(t, 1))

	o, err := f.svc.PlaceOrder(context.Background(), 7, place(
		Item{ProductID: 1, Quantity: 2},
		Item{ProductID: 1, Quantity: 3},
	))
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 0, f.stock(t, 1))
}

func TestPlaceOrder_InactiveProductIsNotFound(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))
	require.NoError(t, f.catalog.Delete(context.Background(), 1))

	_, err := f.svc.PlaceOrder(context.Background(), 7, place(Item{ProductID: 1, Quantity: 1}))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, 5, f.stock(t, 1))
}

func TestPlaceOrder_ValidatesBeforeTouchingStock(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))
	item := Item{ProductID: 1, Quantity: 1}

	cases := map[string]struct {
		in   PlaceInput
		want string
	}{
		"missing first name": {PlaceInput{Address: ShippingAddress{FirstName: "  ", LastName: "Rao", Address: "12 MG Road"}, Items: []Item{item}}, "First name is required"},
		"missing last name":  {PlaceInput{Address: ShippingAddress{FirstName: "Asha", Address: "12 MG Road"}, Items: []Item{item}}, "Last name is required"},
		"short address":      {PlaceInput{Address: ShippingAddress{FirstName: "Asha", LastName: "Rao", Address: " 1 A  "}, Items: []Item{item}}, "Address must be at least 5 characters long"},
		"no items":           {PlaceInput{Address: address()}, "Cart items are required"},
		"zero quantity":      {PlaceInput{Address: address(), Items: []Item{{ProductID: 1, Quantity: 0}}}, "Quantity for product 1 must be at least 1"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(context.Background(), 7, tc.in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
			assert.Equal(t, tc.want, apperr.Message(err))
		})
	}
	assert.Equal(t, 5, f.stock(t, 1))
}

func TestPlaceOrder_CancelledContextLeavesStockUntouched(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.PlaceOrder(ctx, 7, place(Item{ProductID: 1, Quantity: 1}))
	require.Error(t, err)
	assert.Equal(t, 5, f.stock(t, 1))
}

func TestPlaceOrder_RetriesTakenOrderNumbers(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))
	numbers := []string{"KNV2610190001", "KNV2610190001", "KNV2610190001", "KNV2610190002"}
	f.svc.newNumber = func(time.Time) string {
		n := numbers[0]
		numbers = numbers[1:]
		return n
	}

	first, err := f.svc.PlaceOrder(context.Background(), 7, place(Item{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(context.Background(), 7, place(Item{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, "KNV2610190001", first.OrderNumber)
	assert.Equal(t, "KNV2610190002", second.OrderNumber)
	assert.Empty(t, numbers)
}

func TestPlaceOrder_RestocksWhenOrderCannotBeStored(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))
	f.svc.newNumber = func(time.Time) string { return "KNV2610190001" }

	_, err := f.svc.PlaceOrder(context.Background(), 7, place(Item{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	require.Equal(t, 4, f.stock(t, 1))

	_, err = f.svc.PlaceOrder(context.Background(), 7, place(Item{ProductID: 1, Quantity: 2}))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Equal(t, 4, f.stock(t, 1))
}

func TestPlaceOrder_OrderNumbersAreUnique(t *testing.T) {
	const n = 1000
	f := newFixture(t, stocked(1, "P", 1, n))

	seen := make(map[string]struct{}, n)
	for range n {
		o, err := f.svc.PlaceOrder(context.Background(), 7, place(Item{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)
		require.Regexp(t, orderNumberPattern, o.OrderNumber)
		_, dup := seen[o.OrderNumber]
		require.False(t, dup, "duplicate order number %s", o.OrderNumber)
		seen[o.OrderNumber] = struct{}{}
	}
	assert.Len(t, seen, n)
	assert.Equal(t, 0, f.stock(t, 1))
}

func TestPlaceOrder_ConcurrentBuyersNeverOversell(t *testing.T) {
	const stock, buyers = 10, 50
	f := newFixture(t, stocked(1, "P", 100, stock), stocked(2, "Q", 40, buyers))

	var placed, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := range buyers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items := []Item{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}}
			if i%2 == 1 {
				items[0], items[1] = items[1], items[0]
			}
			_, err := f.svc.PlaceOrder(context.Background(), i+1, place(items...))
			switch {
			case err == nil:
				placed.Add(1)
			case apperr.Is(err, apperr.KindInsufficientStock):
				rejected.Add(1)
			default:
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(stock), placed.Load())
	assert.Equal(t, int32(buyers-stock), rejected.Load())
	assert.Equal(t, 0, f.stock(t, 1))
	assert.Equal(t, buyers-stock, f.stock(t, 2))
}

func TestPlaceOrder_ClearsCartWhenAsked(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))
	ctx := context.Background()
	_, err := f.carts.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)

	in := place(Item{ProductID: 1, Quantity: 2})
	_, err = f.svc.PlaceOrder(ctx, 7, in)
	require.NoError(t, err)
	c, err := f.carts.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, c.TotalItems)

	in = place(Item{ProductID: 1, Quantity: 1})
	in.ClearCart = true
	_, err = f.svc.PlaceOrder(ctx, 7, in)
	require.NoError(t, err)
	c, err = f.carts.Get(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 0, c.TotalItems)
}

func TestListByUser_NewestFirst(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 10))
	ctx := context.Background()

	var want []string
	for range 3 {
		o, err := f.svc.PlaceOrder(ctx, 7, place(Item{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)
		want = append([]string{o.ID}, want...)
	}
	_, err := f.svc.PlaceOrder(ctx, 8, place(Item{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	orders, err := f.svc.ListByUser(ctx, 7)
	require.NoError(t, err)
	got := make([]string, 0, len(orders))
	for _, o := range orders {
		got = append(got, o.ID)
	}
	assert.Equal(t, want, got)

	none, err := f.svc.ListByUser(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCancel_RestocksOnceAndRejectsSecondAttempt(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))
	ctx := context.Background()
	o, err := f.svc.PlaceOrder(ctx, 7, place(Item{ProductID: 1, Quantity: 3}))
	require.NoError(t, err)
	require.Equal(t, 2, f.stock(t, 1))

	cancelled, err := f.svc.Cancel(ctx, 7, o.OrderNumber, "  ordered twice ")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, "ordered twice", cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 5, f.stock(t, 1))

	_, err = f.svc.Cancel(ctx, 7, o.ID, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	assert.Equal(t, "Order is already cancelled", apperr.Message(err))
	assert.Equal(t, 5, f.stock(t, 1))

	assert.Equal(t, []string{events.OrderPlaced, events.OrderCancelled}, f.pub.types())
}

func TestCancel_ConcurrentRequestsRestockOnce(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))
	ctx := context.Background()
	o, err := f.svc.PlaceOrder(ctx, 7, place(Item{ProductID: 1, Quantity: 3}))
	require.NoError(t, err)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Cancel(ctx, 7, o.ID, ""); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, 5, f.stock(t, 1))
}

func TestCancel_ShippedOrderFails(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))
	ctx := context.Background()
	o, err := f.svc.PlaceOrder(ctx, 7, place(Item{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	for _, want := range []string{StatusProcessing, StatusShipped} {
		advanced, err := f.svc.Advance(ctx, o.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, want, advanced.Status)
	}

	_, err = f.svc.Cancel(ctx, 7, o.ID, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	assert.Equal(t, "Cannot cancel shipped or delivered orders", apperr.Message(err))
	assert.Equal(t, 4, f.stock(t, 1))

	delivered, err := f.svc.Advance(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)

	_, err = f.svc.Advance(ctx, o.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestCancel_OwnershipAndLookup(t *testing.T) {
	f := newFixture(t, stocked(1, "P", 100, 5))
	ctx := context.Background()
	o, err := f.svc.PlaceOrder(ctx, 7, place(Item{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, 8, o.OrderNumber, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAccessDenied))
	assert.Equal(t, 404, apperr.HTTPStatus(err))
	assert.Equal(t, 4, f.stock(t, 1))

	_, err = f.svc.Cancel(ctx, 7, "KNV0000000000", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = f.svc.Cancel(ctx, 7, "00000000-0000-0000-0000-000000000000", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.Cancel(ctx, 7, o.ID, strings.Repeat("r", 201))
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))

	cancelled, err := f.svc.Cancel(ctx, 7, o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Empty(t, cancelled.CancellationReason)
}
