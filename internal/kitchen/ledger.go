package kitchen

import (
	"context"
	"sync"

	"github.com/restopos/api/internal/order"
)

// Ledger is the append-only pickup log. Entries are never updated or
// removed; recording an entry id twice keeps the first.
type Ledger interface {
	Record(ctx context.Context, e order.PickupLedgerEntry) error
	List(ctx context.Context, kitchen string) ([]order.PickupLedgerEntry, error)
}

// MemoryLedger keeps the pickup log in process memory.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []order.PickupLedgerEntry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Record(ctx context.Context, e order.PickupLedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, cur := range l.entries {
		if cur.ID == e.ID {
			return nil
		}
	}
	l.entries = append(l.entries, e)
	return nil
}

// List returns entries in pickup order. An empty kitchen lists all.
func (l *MemoryLedger) List(ctx context.Context, kitchen string) ([]order.PickupLedgerEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]order.PickupLedgerEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if kitchen == "" || e.Kitchen == kitchen {
			out = append(out, e)
		}
	}
	return out, nil
}
