package kitchen

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/order"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrLineNotFound    = errors.New("order line not found")
	ErrPortionNotFound = fmt.Errorf("%w: kitchen has no portion on this line", order.ErrValidation)
)

type statusKey struct {
	LineID  uuid.UUID
	Kitchen string
}

// Board is the local set of kitchen orders shared by handlers and the
// poller.
//
// Refreshes are tagged with a cycle token. A status confirmed locally after
// a refresh began outranks whatever that refresh brings back for the same
// (line, kitchen) key; every other key takes the polled value.
type Board struct {
	mu     sync.Mutex
	orders map[uuid.UUID]order.Order

	cycle  uint64
	merged uint64

	confirmed map[statusKey]uint64
	touched   map[uuid.UUID]uint64
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		orders:    make(map[uuid.UUID]order.Order),
		confirmed: make(map[statusKey]uint64),
		touched:   make(map[uuid.UUID]uint64),
	}
}

// Orders returns a snapshot of every order, oldest first.
func (b *Board) Orders() []order.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]order.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, cloneOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// Order returns a snapshot of one order.
func (b *Board) Order(id uuid.UUID) (order.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return order.Order{}, false
	}
	return cloneOrder(o), true
}

// Upsert records an order placed or edited through this instance. Kitchen
// statuses already on the board are kept for lines that still exist.
func (b *Board) Upsert(o order.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o = cloneOrder(o)
	if cur, ok := b.orders[o.ID]; ok {
		for i := range o.Lines {
			if prev, found := cur.Line(o.Lines[i].ID); found {
				o.Lines[i].KitchenStatuses = mergeStatuses(o.Lines[i].KitchenStatuses, prev.KitchenStatuses)
			}
		}
	}
	b.orders[o.ID] = o
	b.touched[o.ID] = b.cycle
}

// Confirm applies a transition the Order Store has accepted and returns the
// updated order.
func (b *Board) Confirm(orderID uuid.UUID, t Transition) (order.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok := b.orders[orderID]
	if !ok {
		return order.Order{}, ErrOrderNotFound
	}
	next, err := Reduce(cur, t)
	if err != nil {
		return order.Order{}, err
	}
	b.orders[orderID] = next
	b.confirmed[statusKey{LineID: t.LineID, Kitchen: t.Kitchen}] = b.cycle
	return cloneOrder(next), nil
}

// BeginRefresh opens a refresh cycle and returns its token.
func (b *Board) BeginRefresh() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cycle++
	return b.cycle
}

// Merge replaces the board with polled orders. It reports false and leaves
// the board alone when a newer refresh has already been merged.
func (b *Board) Merge(token uint64, incoming []order.Order) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if token < b.merged {
		return false
	}

	next := make(map[uuid.UUID]order.Order, len(incoming))
	for _, o := range incoming {
		o = cloneOrder(o)
		if local, ok := b.orders[o.ID]; ok {
			if b.touched[o.ID] >= token {
				o = local
			} else {
				b.keepConfirmed(token, local, &o)
			}
		}
		next[o.ID] = o
	}
	// Orders placed here after the poll started are not in its response yet.
	for id, local := range b.orders {
		if _, ok := next[id]; !ok && b.touched[id] >= token {
			next[id] = local
		}
	}
	b.orders = next
	b.merged = token

	for k, c := range b.confirmed {
		if c < token {
			delete(b.confirmed, k)
		}
	}
	for id, c := range b.touched {
		if c < token {
			delete(b.touched, id)
		}
	}
	return true
}

func (b *Board) keepConfirmed(token uint64, local order.Order, polled *order.Order) {
	for i := range polled.Lines {
		line := &polled.Lines[i]
		prev, ok := local.Line(line.ID)
		if !ok {
			continue
		}
		for kitchen, status := range prev.KitchenStatuses {
			if b.confirmed[statusKey{LineID: line.ID, Kitchen: kitchen}] >= token {
				if line.KitchenStatuses == nil {
					line.KitchenStatuses = make(map[string]string)
				}
				line.KitchenStatuses[kitchen] = status
			}
		}
	}
}

// mergeStatuses keeps the furthest status per kitchen.
func mergeStatuses(next, prev map[string]string) map[string]string {
	out := make(map[string]string, len(next)+len(prev))
	for k, v := range prev {
		out[k] = v
	}
	for k, v := range next {
		if rank[v] >= rank[out[k]] {
			out[k] = v
		}
	}
	return out
}

func cloneOrder(o order.Order) order.Order {
	out := o
	out.Lines = make([]order.CartLine, len(o.Lines))
	for i, l := range o.Lines {
		out.Lines[i] = l.Clone()
	}
	return out
}
