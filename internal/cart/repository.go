package cart

import (
	"context"
	"sync"
	"time"
)

// Repository stores one cart per user. Update runs fn on a private copy of
// the cart while holding that user's lock and stores the copy only if fn
// succeeds.
type Repository interface {
	GetOrCreate(ctx context.Context, userID int) (Cart, error)
	Update(ctx context.Context, userID int, fn func(*Cart) error) (Cart, error)
}

type entry struct {
	mu   sync.Mutex
	cart Cart
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.Mutex
	carts map[int]*entry
	now   func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: make(map[int]*entry), now: time.Now}
}

func (r *InMemoryRepository) entry(userID int) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.carts[userID]
	if !ok {
		e = &entry{cart: New(userID, r.now())}
		r.carts[userID] = e
	}
	return e
}

func (r *InMemoryRepository) GetOrCreate(ctx context.Context, userID int) (Cart, error) {
	e := r.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.cart.clone()
	out.Recalculate()
	return out, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, userID int, fn func(*Cart) error) (Cart, error) {
	e := r.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Cart{}, err
	}
	working := e.cart.clone()
	working.Recalculate()
	if err := fn(&working); err != nil {
		return Cart{}, err
	}
	e.cart = working.clone()
	return working, nil
}
