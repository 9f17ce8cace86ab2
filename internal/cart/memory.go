package cart

import (
	"context"
	"sync"

	"github.com/restopos/api/internal/order"
)

// MemoryRepository keeps carts in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]Cart
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string]Cart)}
}

func (r *MemoryRepository) Load(ctx context.Context, cartID string) (*Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[cartID]
	if !ok {
		return nil, ErrCartNotFound
	}
	out := copyCart(c)
	return &out, nil
}

func (r *MemoryRepository) Save(ctx context.Context, c *Cart) error {
	r.mu.Lock()
	r.carts[c.ID] = copyCart(*c)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, cartID string) error {
	r.mu.Lock()
	delete(r.carts, cartID)
	r.mu.Unlock()
	return nil
}

func copyCart(c Cart) Cart {
	out := c
	out.Lines = make([]order.CartLine, len(c.Lines))
	for i, l := range c.Lines {
		out.Lines[i] = l.Clone()
	}
	return out
}
