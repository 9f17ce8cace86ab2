package cart

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/order"
)

// ErrLineNotFound is returned when an edit or removal names an unknown line.
var ErrLineNotFound = errors.New("cart line not found")

// Reconcile merges a configured line into a cart and returns the new line
// list; existing is not modified.
//
// A configured line whose id matches an existing line replaces it in place.
// Otherwise a regular item replaces the line with the same name and resolved
// size (items without a size variant share one bucket). Anything else is
// appended with fresh kitchen statuses. Bundles are never matched by name.
// A replaced line keeps its id and kitchen statuses.
func Reconcile(existing []order.CartLine, configured order.CartLine) []order.CartLine {
	out := make([]order.CartLine, len(existing), len(existing)+1)
	copy(out, existing)

	if configured.ID != uuid.Nil {
		for i := range out {
			if out[i].ID == configured.ID {
				out[i] = replaceLine(out[i], configured)
				return out
			}
		}
	}

	if !configured.IsBundle() {
		key := sizeBucket(configured)
		for i := range out {
			if out[i].IsBundle() || out[i].Name != configured.Name {
				continue
			}
			if sizeBucket(out[i]) == key {
				out[i] = replaceLine(out[i], configured)
				return out
			}
		}
	}

	line := configured.Clone()
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	line.KitchenStatuses = make(map[string]string)
	return append(out, line)
}

// Update applies an action to the line with the given id and reconciles the
// result back by id.
func Update(lines []order.CartLine, id uuid.UUID, a Action, now time.Time) ([]order.CartLine, error) {
	idx := indexOf(lines, id)
	if idx < 0 {
		return lines, ErrLineNotFound
	}
	next, err := Apply(lines[idx], a, now)
	if err != nil {
		return lines, err
	}
	return Reconcile(lines, next), nil
}

// Remove deletes a whole line.
func Remove(lines []order.CartLine, id uuid.UUID) ([]order.CartLine, error) {
	idx := indexOf(lines, id)
	if idx < 0 {
		return lines, ErrLineNotFound
	}
	out := make([]order.CartLine, 0, len(lines)-1)
	out = append(out, lines[:idx]...)
	return append(out, lines[idx+1:]...), nil
}

func replaceLine(current, configured order.CartLine) order.CartLine {
	next := configured.Clone()
	next.ID = current.ID
	next.KitchenStatuses = current.Clone().KitchenStatuses
	return next
}

// sizeBucket is the resolved size used for name matching; "" is the shared
// bucket of items without a size variant.
func sizeBucket(line order.CartLine) string {
	if line.Item == nil || !line.Item.Capabilities.Size.Enabled {
		return ""
	}
	if enum.IsSize(line.Variant.Size) {
		return line.Variant.Size
	}
	return enum.SizeMedium
}

func indexOf(lines []order.CartLine, id uuid.UUID) int {
	for i := range lines {
		if lines[i].ID == id {
			return i
		}
	}
	return -1
}
