package product

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("product not found")
)

type Repository interface {
	// List returns active products ordered by id.
	List(ctx context.Context) ([]Product, error)
	// GetByID returns the product whether or not it is active.
	GetByID(ctx context.Context, id int) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int, p Product) (Product, error)
	// Delete is a soft delete: the row stays and Active becomes false.
	Delete(ctx context.Context, id int) error
	// Reset replaces all products with the provided list (used for seeding).
	Reset(ctx context.Context, products []Product) error
}

// InMemoryRepository keeps the catalog in a map. It also implements Ledger,
// so the stock counters and product rows never drift apart.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage map[int]Product
	nextID  int
	locks   keyedMutex
	now     func() time.Time
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make(map[int]Product, len(seed)),
		nextID:  1,
		now:     time.Now,
	}
	_ = r.load(seed)
	return r
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.storage))
	for _, p := range r.storage {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.storage[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
	}
	if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	now := r.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.withStock(p.StockQuantity)
	r.storage[p.ID] = p
	return p, nil
}

// Update overwrites the editable fields. It takes the product's stock lock
// so an admin edit cannot interleave with an order's check-then-decrement.
func (r *InMemoryRepository) Update(ctx context.Context, id int, p Product) (Product, error) {
	unlock := r.locks.lock(id)
	defer unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.storage[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	p.ID = id
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = r.now()
	p.withStock(p.StockQuantity)
	r.storage[id] = p
	return p, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	p.Active = false
	p.UpdatedAt = r.now()
	r.storage[id] = p
	return nil
}

// Reset replaces the whole in-memory storage with the provided products.
func (r *InMemoryRepository) Reset(ctx context.Context, products []Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage = make(map[int]Product, len(products))
	r.nextID = 1
	return r.load(products)
}

// load must be called with mu held or before the repository is shared.
func (r *InMemoryRepository) load(products []Product) error {
	now := r.now()
	maxID := r.nextID - 1
	for _, p := range products {
		if p.ID == 0 {
			maxID++
			p.ID = maxID
		}
		if p.ID > maxID {
			maxID = p.ID
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
		p.withStock(p.StockQuantity)
		r.storage[p.ID] = p
	}
	r.nextID = maxID + 1
	return nil
}
