package order

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound             = errors.New("order not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
)

type Repository interface {
	// Create stores a new order. It returns ErrDuplicateOrderNumber when the
	// business order id is already taken.
	Create(ctx context.Context, o Order) (Order, error)
	FindByID(ctx context.Context, id string) (Order, error)
	FindByOrderNumber(ctx context.Context, number string) (Order, error)
	// FindByUser returns the user's orders, newest first.
	FindByUser(ctx context.Context, userID int) ([]Order, error)
	// Mutate applies fn to the order with the given internal id atomically.
	// Nothing is stored when fn fails.
	Mutate(ctx context.Context, id string, fn func(*Order) error) (Order, error)
}

type InMemoryRepository struct {
	mu       sync.Mutex
	orders   map[string]Order
	byNumber map[string]string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		orders:   make(map[string]Order),
		byNumber: make(map[string]string),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byNumber[o.OrderNumber]; taken {
		return Order{}, ErrDuplicateOrderNumber
	}
	r.orders[o.ID] = o.clone()
	r.byNumber[o.OrderNumber] = o.ID
	return o, nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o.clone(), nil
}

func (r *InMemoryRepository) FindByOrderNumber(ctx context.Context, number string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byNumber[number]
	if !ok {
		return Order{}, ErrNotFound
	}
	return r.orders[id].clone(), nil
}

func (r *InMemoryRepository) FindByUser(ctx context.Context, userID int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderNumber > out[j].OrderNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) Mutate(ctx context.Context, id string, fn func(*Order) error) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	working := o.clone()
	if err := fn(&working); err != nil {
		return Order{}, err
	}
	r.orders[id] = working.clone()
	return working, nil
}
