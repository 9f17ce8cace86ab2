package kitchen

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/order"
)

// Event types pushed to kitchen displays.
const (
	EventLineStatus  = "line.status"
	EventOrderPlaced = "order.placed"
)

// Store is the part of the Order Store kitchens drive. It is the authority
// on every transition.
type Store interface {
	MarkPrepared(ctx context.Context, orderID, lineID uuid.UUID, kitchen string) (string, error)
	MarkPickedUp(ctx context.Context, orderID, lineID uuid.UUID, kitchen string) (string, order.PickupLedgerEntry, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
}

// Notifier pushes events to the displays of one kitchen.
type Notifier interface {
	Notify(kitchen, eventType string, payload any)
}

// StatusEvent is the payload of EventLineStatus.
type StatusEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	LineID  uuid.UUID `json:"line_id"`
	Kitchen string    `json:"kitchen"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

// PickupFailure is one portion a bulk pickup could not move.
type PickupFailure struct {
	OrderID uuid.UUID `json:"order_id"`
	LineID  uuid.UUID `json:"line_id,omitempty"`
	Error   string    `json:"error"`
}

// BulkResult reports a bulk pickup. Failures never stop the remaining items.
type BulkResult struct {
	PickedUp []order.PickupLedgerEntry `json:"picked_up"`
	Failed   []PickupFailure           `json:"failed"`
}

// Service drives the kitchen state machine against the Order Store and
// keeps the board current.
type Service struct {
	board    *Board
	store    Store
	ledger   Ledger
	notifier Notifier
	now      func() time.Time
}

// NewService creates a kitchen Service. notifier may be nil.
func NewService(board *Board, store Store, ledger Ledger, notifier Notifier) *Service {
	return &Service{
		board:    board,
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
	}
}

// Orders returns the kitchen's filtered view of the board.
func (s *Service) Orders(kitchen string) []View {
	return Filter(s.board.Orders(), kitchen)
}

// Track puts an order placed through this instance on the board and tells
// every kitchen it touches.
func (s *Service) Track(o order.Order) {
	s.board.Upsert(o)
	seen := make(map[string]bool)
	for _, line := range o.Lines {
		for _, k := range KitchensOf(line) {
			if !seen[k] {
				seen[k] = true
				s.notify(k, EventOrderPlaced, map[string]any{"order_id": o.ID, "number": o.Number})
			}
		}
	}
}

// MarkPrepared moves the kitchen's portion of a line to PREPARED once the
// Order Store confirms it.
func (s *Service) MarkPrepared(ctx context.Context, kitchen string, orderID, lineID uuid.UUID) (*order.CartLine, error) {
	line, err := s.portionLine(orderID, lineID, kitchen)
	if err != nil {
		return nil, err
	}
	status := line.StatusFor(kitchen)
	if !CanMarkPrepared(status) {
		return nil, ValidateTransition(kitchen, status, enum.KitchenStatusPrepared)
	}

	confirmed, err := s.store.MarkPrepared(ctx, orderID, lineID, kitchen)
	if err != nil {
		return nil, fmt.Errorf("mark prepared: %w", err)
	}
	return s.confirm(orderID, lineID, kitchen, confirmed)
}

// MarkPickedUp moves the kitchen's portion of a line to PICKED_UP once the
// Order Store confirms it, and records the ledger entry.
func (s *Service) MarkPickedUp(ctx context.Context, kitchen string, orderID, lineID uuid.UUID) (*order.CartLine, order.PickupLedgerEntry, error) {
	line, err := s.portionLine(orderID, lineID, kitchen)
	if err != nil {
		return nil, order.PickupLedgerEntry{}, err
	}
	status := line.StatusFor(kitchen)
	if !CanMarkPickedUp(status) {
		return nil, order.PickupLedgerEntry{}, ValidateTransition(kitchen, status, enum.KitchenStatusPickedUp)
	}

	confirmed, entry, err := s.store.MarkPickedUp(ctx, orderID, lineID, kitchen)
	if err != nil {
		return nil, order.PickupLedgerEntry{}, fmt.Errorf("mark picked up: %w", err)
	}
	updated, err := s.confirm(orderID, lineID, kitchen, confirmed)
	if err != nil {
		return nil, order.PickupLedgerEntry{}, err
	}

	entry = s.completeEntry(entry, orderID, lineID, kitchen)
	if err := s.ledger.Record(ctx, entry); err != nil {
		log.Printf("ERROR: record pickup %s: %v", entry.ID, err)
	}
	return updated, entry, nil
}

// BulkPickup picks up every PREPARED portion of the kitchen on the given
// orders, one at a time.
func (s *Service) BulkPickup(ctx context.Context, kitchen string, orderIDs []uuid.UUID) BulkResult {
	res := BulkResult{
		PickedUp: []order.PickupLedgerEntry{},
		Failed:   []PickupFailure{},
	}
	for _, oid := range orderIDs {
		o, ok := s.board.Order(oid)
		if !ok {
			res.Failed = append(res.Failed, PickupFailure{OrderID: oid, Error: ErrOrderNotFound.Error()})
			continue
		}
		for _, line := range o.Lines {
			if !Touches(line, kitchen) || !CanMarkPickedUp(line.StatusFor(kitchen)) {
				continue
			}
			_, entry, err := s.MarkPickedUp(ctx, kitchen, oid, line.ID)
			if err != nil {
				log.Printf("WARN: bulk pickup order %s line %s: %v", oid, line.ID, err)
				res.Failed = append(res.Failed, PickupFailure{OrderID: oid, LineID: line.ID, Error: err.Error()})
				continue
			}
			res.PickedUp = append(res.PickedUp, entry)
		}
	}
	return res
}

// Ledger lists the kitchen's pickups.
func (s *Service) Ledger(ctx context.Context, kitchen string) ([]order.PickupLedgerEntry, error) {
	return s.ledger.List(ctx, kitchen)
}

// Refresh polls the Order Store and merges the result into the board.
func (s *Service) Refresh(ctx context.Context) error {
	token := s.board.BeginRefresh()
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	if !s.board.Merge(token, orders) {
		log.Printf("WARN: dropped refresh %d, a newer one was merged", token)
	}
	return nil
}

func (s *Service) portionLine(orderID, lineID uuid.UUID, kitchen string) (order.CartLine, error) {
	o, ok := s.board.Order(orderID)
	if !ok {
		return order.CartLine{}, ErrOrderNotFound
	}
	line, ok := o.Line(lineID)
	if !ok {
		return order.CartLine{}, ErrLineNotFound
	}
	if !Touches(*line, kitchen) {
		return order.CartLine{}, ErrPortionNotFound
	}
	return *line, nil
}

func (s *Service) confirm(orderID, lineID uuid.UUID, kitchen, status string) (*order.CartLine, error) {
	o, err := s.board.Confirm(orderID, Transition{LineID: lineID, Kitchen: kitchen, Status: status})
	if err != nil {
		return nil, err
	}
	line, _ := o.Line(lineID)
	s.notify(kitchen, EventLineStatus, StatusEvent{
		OrderID: orderID,
		LineID:  lineID,
		Kitchen: kitchen,
		Status:  status,
		At:      s.now(),
	})
	return line, nil
}

func (s *Service) completeEntry(e order.PickupLedgerEntry, orderID, lineID uuid.UUID, kitchen string) order.PickupLedgerEntry {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OrderID == uuid.Nil {
		e.OrderID = orderID
	}
	if e.CartLineID == uuid.Nil {
		e.CartLineID = lineID
	}
	if e.Kitchen == "" {
		e.Kitchen = kitchen
	}
	if e.PickedUpAt.IsZero() {
		e.PickedUpAt = s.now()
	}
	return e
}

func (s *Service) notify(kitchen, eventType string, payload any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(kitchen, eventType, payload)
}
