package orderstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/order"
	"github.com/restopos/api/internal/pricing"
)

// ErrNotFound is returned for unknown orders or lines.
var ErrNotFound = errors.New("order not found")

// Store is the Order Store contract. It is the authority on kitchen status
// transitions: a status is only real once a Store has confirmed it.
type Store interface {
	CreateOrder(ctx context.Context, o order.Order) (order.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, o order.Order) (order.Order, error)
	MarkPrepared(ctx context.Context, orderID, lineID uuid.UUID, kitchen string) (string, error)
	MarkPickedUp(ctx context.Context, orderID, lineID uuid.UUID, kitchen string) (string, order.PickupLedgerEntry, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
}

// OrderPayload is the wire form of an order. Lines carry full-precision
// amounts; Totals is the rounded summary for display and reporting.
type OrderPayload struct {
	order.Order
	Totals map[string]string `json:"totals,omitempty"`
}

// NewPayload wraps o with its rounded subtotal. VAT is left to the reader,
// which owns the rate.
func NewPayload(o order.Order) OrderPayload {
	return OrderPayload{
		Order:  o,
		Totals: map[string]string{"subtotal": pricing.Format(pricing.Subtotal(o.Lines))},
	}
}

// TransitionResponse is the wire form of a confirmed transition.
type TransitionResponse struct {
	Status      string                   `json:"status"`
	LedgerEntry *order.PickupLedgerEntry `json:"ledger_entry,omitempty"`
}

// ErrorResponse is the wire form of a refused request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kitchen string `json:"kitchen,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
