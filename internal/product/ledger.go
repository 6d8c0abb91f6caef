package product

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrTxDone = errors.New("stock transaction already finished")

// Ledger owns the stock counters. Every change is serialized per product and
// clamps the counter at zero.
type Ledger interface {
	// Begin locks the given products, in ascending id order, until the
	// returned transaction is committed or rolled back.
	Begin(ctx context.Context, ids []int) (StockTx, error)
	Decrease(ctx context.Context, id, qty int) error
	Increase(ctx context.Context, id, qty int) error
}

// StockTx is a check-then-decrement unit over a locked set of products.
// Decreases become visible to other callers only on Commit.
type StockTx interface {
	// Get returns the product as seen inside the transaction, with pending
	// decreases applied.
	Get(id int) (Product, error)
	Decrease(id, qty int) error
	Commit() error
	Rollback() error
}

// sortedUnique returns ids ascending with duplicates removed, the order in
// which product locks are always taken.
func sortedUnique(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func (k *keyedMutex) get(id int) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[int]*sync.Mutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	return m
}

func (k *keyedMutex) lock(id int) func() {
	m := k.get(id)
	m.Lock()
	return m.Unlock
}

func (r *InMemoryRepository) Begin(ctx context.Context, ids []int) (StockTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ordered := sortedUnique(ids)
	held := make([]*sync.Mutex, 0, len(ordered))
	for _, id := range ordered {
		m := r.locks.get(id)
		m.Lock()
		held = append(held, m)
	}
	return &memoryTx{repo: r, held: held, pending: map[int]int{}}, nil
}

func (r *InMemoryRepository) Decrease(ctx context.Context, id, qty int) error {
	return r.adjust(id, -qty)
}

func (r *InMemoryRepository) Increase(ctx context.Context, id, qty int) error {
	return r.adjust(id, qty)
}

func (r *InMemoryRepository) adjust(id, delta int) error {
	unlock := r.locks.lock(id)
	defer unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	p.withStock(p.StockQuantity + delta)
	p.UpdatedAt = r.now()
	r.storage[id] = p
	return nil
}

type memoryTx struct {
	repo    *InMemoryRepository
	held    []*sync.Mutex
	pending map[int]int
	done    bool
}

func (tx *memoryTx) Get(id int) (Product, error) {
	if tx.done {
		return Product{}, ErrTxDone
	}
	p, err := tx.repo.GetByID(context.Background(), id)
	if err != nil {
		return Product{}, err
	}
	p.withStock(p.StockQuantity - tx.pending[id])
	return p, nil
}

func (tx *memoryTx) Decrease(id, qty int) error {
	if tx.done {
		return ErrTxDone
	}
	if _, err := tx.repo.GetByID(context.Background(), id); err != nil {
		return err
	}
	tx.pending[id] += qty
	return nil
}

func (tx *memoryTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	defer tx.release()

	r := tx.repo
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, qty := range tx.pending {
		p, ok := r.storage[id]
		if !ok {
			continue
		}
		p.withStock(p.StockQuantity - qty)
		p.UpdatedAt = now
		r.storage[id] = p
	}
	return nil
}

func (tx *memoryTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.release()
	return nil
}

func (tx *memoryTx) release() {
	tx.done = true
	for i := len(tx.held) - 1; i >= 0; i-- {
		tx.held[i].Unlock()
	}
	tx.held = nil
}
