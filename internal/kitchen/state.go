package kitchen

import (
	"github.com/google/uuid"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/order"
)

// allowedTransitions defines the status changes reachable through the
// public actions. Key is current status, value is the set of next statuses.
var allowedTransitions = map[string][]string{
	enum.KitchenStatusPending:   {enum.KitchenStatusPrepared},
	enum.KitchenStatusPreparing: {enum.KitchenStatusPrepared},
	enum.KitchenStatusPrepared:  {enum.KitchenStatusPickedUp},
}

// rank orders statuses so merges and confirmations only move forward.
var rank = map[string]int{
	enum.KitchenStatusPending:   0,
	enum.KitchenStatusPreparing: 1,
	enum.KitchenStatusPrepared:  2,
	enum.KitchenStatusPickedUp:  3,
}

// CanMarkPrepared reports whether "mark prepared" is offered for status.
func CanMarkPrepared(status string) bool {
	return ValidateTransition("", status, enum.KitchenStatusPrepared) == nil
}

// CanMarkPickedUp reports whether "mark picked up" is offered for status.
func CanMarkPickedUp(status string) bool {
	return status == enum.KitchenStatusPrepared
}

// ValidateTransition checks that current → next is a public transition.
func ValidateTransition(kitchen, current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return &order.TransitionError{Kitchen: kitchen, From: current, To: next, Reason: "status is final or unknown"}
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return &order.TransitionError{Kitchen: kitchen, From: current, To: next, Reason: "not an allowed transition"}
}

// ApplyTransition writes a status confirmed by the Order Store onto a copy
// of line. A confirmed status that would move the kitchen backwards is
// rejected and the line is returned unchanged.
func ApplyTransition(line order.CartLine, kitchen, confirmed string) (order.CartLine, error) {
	if _, ok := rank[confirmed]; !ok {
		return line, &order.TransitionError{Kitchen: kitchen, From: line.StatusFor(kitchen), To: confirmed, Reason: "unknown status"}
	}
	current := line.StatusFor(kitchen)
	if rank[confirmed] < rank[current] {
		return line, &order.TransitionError{Kitchen: kitchen, From: current, To: confirmed, Reason: "status cannot move backwards"}
	}

	next := line.Clone()
	next.KitchenStatuses[kitchen] = confirmed
	return next, nil
}

// Transition is one confirmed status change on a kitchen order.
type Transition struct {
	LineID  uuid.UUID
	Kitchen string
	Status  string
}

// Reduce applies a confirmed transition to an order and returns the new
// order; o is not modified.
func Reduce(o order.Order, t Transition) (order.Order, error) {
	idx := -1
	for i := range o.Lines {
		if o.Lines[i].ID == t.LineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return o, ErrLineNotFound
	}

	line, err := ApplyTransition(o.Lines[idx], t.Kitchen, t.Status)
	if err != nil {
		return o, err
	}

	next := o
	next.Lines = make([]order.CartLine, len(o.Lines))
	copy(next.Lines, o.Lines)
	next.Lines[idx] = line
	return next, nil
}
