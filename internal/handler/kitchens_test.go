package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/handler"
	"github.com/restopos/api/internal/kitchen"
	"github.com/restopos/api/internal/order"
)

// --- Mock KitchenServicer ---

type mockKitchenService struct {
	ordersFn   func(kitchen string) []kitchen.View
	preparedFn func(ctx context.Context, k string, orderID, lineID uuid.UUID) (*order.CartLine, error)
	pickedUpFn func(ctx context.Context, k string, orderID, lineID uuid.UUID) (*order.CartLine, order.PickupLedgerEntry, error)
	bulkFn     func(ctx context.Context, k string, orderIDs []uuid.UUID) kitchen.BulkResult
	ledgerFn   func(ctx context.Context, k string) ([]order.PickupLedgerEntry, error)
}

func (m *mockKitchenService) Orders(k string) []kitchen.View {
	if m.ordersFn != nil {
		return m.ordersFn(k)
	}
	return nil
}

func (m *mockKitchenService) MarkPrepared(ctx context.Context, k string, orderID, lineID uuid.UUID) (*order.CartLine, error) {
	return m.preparedFn(ctx, k, orderID, lineID)
}

func (m *mockKitchenService) MarkPickedUp(ctx context.Context, k string, orderID, lineID uuid.UUID) (*order.CartLine, order.PickupLedgerEntry, error) {
	return m.pickedUpFn(ctx, k, orderID, lineID)
}

func (m *mockKitchenService) BulkPickup(ctx context.Context, k string, orderIDs []uuid.UUID) kitchen.BulkResult {
	return m.bulkFn(ctx, k, orderIDs)
}

func (m *mockKitchenService) Ledger(ctx context.Context, k string) ([]order.PickupLedgerEntry, error) {
	if m.ledgerFn != nil {
		return m.ledgerFn(ctx, k)
	}
	return nil, nil
}

func setupKitchenRouter(svc *mockKitchenService) *chi.Mux {
	h := handler.NewKitchenHandler(svc)
	r := chi.NewRouter()
	r.Route("/kitchens/{kitchen}", h.RegisterRoutes)
	return r
}

func lineWithStatus(id uuid.UUID, k, status string) *order.CartLine {
	return &order.CartLine{ID: id, Name: "Burger", Quantity: 1, KitchenStatuses: map[string]string{k: status}}
}

// --- Tests ---

func TestKitchenOrders(t *testing.T) {
	orderID := uuid.New()
	svc := &mockKitchenService{
		ordersFn: func(k string) []kitchen.View {
			if k != "GRILL" {
				t.Errorf("kitchen: got %s, want GRILL", k)
			}
			return []kitchen.View{{OrderID: orderID, Number: "0003", Lines: []kitchen.ViewLine{{
				LineID: uuid.New(), Name: "Burger", Status: enum.KitchenStatusPending, CanMarkPrepared: true,
			}}}}
		},
	}

	rr := doRequest(t, setupKitchenRouter(svc), "GET", "/kitchens/GRILL/orders", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp []kitchen.View
	decodeBody(t, rr, &resp)
	if len(resp) != 1 || resp[0].OrderID != orderID {
		t.Fatalf("views: got %+v", resp)
	}
	if !resp[0].Lines[0].CanMarkPrepared || resp[0].Lines[0].CanMarkPickedUp {
		t.Errorf("pending line actions: got %+v", resp[0].Lines[0])
	}
}

func TestKitchenOrders_EmptyIsArray(t *testing.T) {
	rr := doRequest(t, setupKitchenRouter(&mockKitchenService{}), "GET", "/kitchens/BAR/orders", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "[]\n" {
		t.Errorf("body: got %q, want []", got)
	}
}

func TestKitchenMarkPrepared(t *testing.T) {
	orderID, lineID := uuid.New(), uuid.New()
	svc := &mockKitchenService{
		preparedFn: func(ctx context.Context, k string, oid, lid uuid.UUID) (*order.CartLine, error) {
			if k != "GRILL" || oid != orderID || lid != lineID {
				t.Errorf("params: got %s %s %s", k, oid, lid)
			}
			return lineWithStatus(lid, k, enum.KitchenStatusPrepared), nil
		},
	}

	path := fmt.Sprintf("/kitchens/GRILL/orders/%s/lines/%s/prepared", orderID, lineID)
	rr := doRequest(t, setupKitchenRouter(svc), "POST", path, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp struct {
		LineID uuid.UUID `json:"line_id"`
		Status string    `json:"status"`
	}
	decodeBody(t, rr, &resp)
	if resp.Status != enum.KitchenStatusPrepared || resp.LineID != lineID {
		t.Errorf("got %+v", resp)
	}
}

func TestKitchenMarkPrepared_InvalidIDs(t *testing.T) {
	svc := &mockKitchenService{
		preparedFn: func(ctx context.Context, k string, oid, lid uuid.UUID) (*order.CartLine, error) {
			t.Error("service must not be called")
			return nil, nil
		},
	}
	router := setupKitchenRouter(svc)

	rr := doRequest(t, router, "POST", "/kitchens/GRILL/orders/bad/lines/"+uuid.NewString()+"/prepared", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad order id: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	rr = doRequest(t, router, "POST", "/kitchens/GRILL/orders/"+uuid.NewString()+"/lines/bad/prepared", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad line id: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestKitchenMarkPickedUp_Rejected(t *testing.T) {
	svc := &mockKitchenService{
		pickedUpFn: func(ctx context.Context, k string, oid, lid uuid.UUID) (*order.CartLine, order.PickupLedgerEntry, error) {
			return nil, order.PickupLedgerEntry{}, &order.TransitionError{
				Kitchen: k, From: enum.KitchenStatusPending, To: enum.KitchenStatusPickedUp,
			}
		},
	}

	path := fmt.Sprintf("/kitchens/GRILL/orders/%s/lines/%s/picked-up", uuid.New(), uuid.New())
	rr := doRequest(t, setupKitchenRouter(svc), "POST", path, nil)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	var resp struct {
		Error   string `json:"error"`
		Kitchen string `json:"kitchen"`
		From    string `json:"from"`
		To      string `json:"to"`
	}
	decodeBody(t, rr, &resp)
	if resp.Kitchen != "GRILL" || resp.From != enum.KitchenStatusPending || resp.To != enum.KitchenStatusPickedUp {
		t.Errorf("got %+v", resp)
	}
	if resp.Error == "" {
		t.Error("expected an error message")
	}
}

func TestKitchenMarkPickedUp_ReturnsLedgerEntry(t *testing.T) {
	orderID, lineID := uuid.New(), uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := &mockKitchenService{
		pickedUpFn: func(ctx context.Context, k string, oid, lid uuid.UUID) (*order.CartLine, order.PickupLedgerEntry, error) {
			entry := order.PickupLedgerEntry{ID: uuid.New(), OrderID: oid, CartLineID: lid, Kitchen: k, PickedUpAt: at}
			return lineWithStatus(lid, k, enum.KitchenStatusPickedUp), entry, nil
		},
	}

	path := fmt.Sprintf("/kitchens/BAR/orders/%s/lines/%s/picked-up", orderID, lineID)
	rr := doRequest(t, setupKitchenRouter(svc), "POST", path, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp struct {
		Status      string                  `json:"status"`
		LedgerEntry order.PickupLedgerEntry `json:"ledger_entry"`
	}
	decodeBody(t, rr, &resp)
	if resp.Status != enum.KitchenStatusPickedUp {
		t.Errorf("status: got %s, want %s", resp.Status, enum.KitchenStatusPickedUp)
	}
	if resp.LedgerEntry.CartLineID != lineID || !resp.LedgerEntry.PickedUpAt.Equal(at) {
		t.Errorf("ledger entry: got %+v", resp.LedgerEntry)
	}
}

func TestKitchenMarkPickedUp_NotFound(t *testing.T) {
	svc := &mockKitchenService{
		pickedUpFn: func(ctx context.Context, k string, oid, lid uuid.UUID) (*order.CartLine, order.PickupLedgerEntry, error) {
			return nil, order.PickupLedgerEntry{}, kitchen.ErrOrderNotFound
		},
	}
	path := fmt.Sprintf("/kitchens/BAR/orders/%s/lines/%s/picked-up", uuid.New(), uuid.New())
	rr := doRequest(t, setupKitchenRouter(svc), "POST", path, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestKitchenBulkPickup_PartialFailure(t *testing.T) {
	ok, bad := uuid.New(), uuid.New()
	svc := &mockKitchenService{
		bulkFn: func(ctx context.Context, k string, ids []uuid.UUID) kitchen.BulkResult {
			if len(ids) != 2 {
				t.Errorf("ids: got %d, want 2", len(ids))
			}
			return kitchen.BulkResult{
				PickedUp: []order.PickupLedgerEntry{{ID: uuid.New(), OrderID: ok, Kitchen: k}},
				Failed:   []kitchen.PickupFailure{{OrderID: bad, Error: "transient network error"}},
			}
		},
	}

	rr := doRequest(t, setupKitchenRouter(svc), "POST", "/kitchens/GRILL/pickups", map[string]interface{}{
		"order_ids": []uuid.UUID{ok, bad},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp kitchen.BulkResult
	decodeBody(t, rr, &resp)
	if len(resp.PickedUp) != 1 || resp.PickedUp[0].OrderID != ok {
		t.Errorf("picked up: got %+v", resp.PickedUp)
	}
	if len(resp.Failed) != 1 || resp.Failed[0].OrderID != bad {
		t.Errorf("failed: got %+v", resp.Failed)
	}
}

func TestKitchenBulkPickup_RequiresIDs(t *testing.T) {
	rr := doRequest(t, setupKitchenRouter(&mockKitchenService{}), "POST", "/kitchens/GRILL/pickups", map[string]interface{}{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestKitchenLedger(t *testing.T) {
	router := setupKitchenRouter(&mockKitchenService{})
	rr := doRequest(t, router, "GET", "/kitchens/GRILL/ledger", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "[]\n" {
		t.Errorf("body: got %q, want []", got)
	}

	svc := &mockKitchenService{
		ledgerFn: func(ctx context.Context, k string) ([]order.PickupLedgerEntry, error) {
			return nil, fmt.Errorf("query ledger: connection reset")
		},
	}
	rr = doRequest(t, setupKitchenRouter(svc), "GET", "/kitchens/GRILL/ledger", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
