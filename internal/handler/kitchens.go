package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/restopos/api/internal/kitchen"
	"github.com/restopos/api/internal/order"
)

// KitchenServicer defines the kitchen operations the handlers drive.
// Satisfied by *kitchen.Service; narrow interface for testability.
type KitchenServicer interface {
	Orders(kitchen string) []kitchen.View
	MarkPrepared(ctx context.Context, kitchen string, orderID, lineID uuid.UUID) (*order.CartLine, error)
	MarkPickedUp(ctx context.Context, kitchen string, orderID, lineID uuid.UUID) (*order.CartLine, order.PickupLedgerEntry, error)
	BulkPickup(ctx context.Context, kitchen string, orderIDs []uuid.UUID) kitchen.BulkResult
	Ledger(ctx context.Context, kitchen string) ([]order.PickupLedgerEntry, error)
}

// KitchenHandler handles kitchen display endpoints.
type KitchenHandler struct {
	svc KitchenServicer
}

func NewKitchenHandler(svc KitchenServicer) *KitchenHandler {
	return &KitchenHandler{svc: svc}
}

// RegisterRoutes registers kitchen endpoints.
// Expected to be mounted inside a kitchen-scoped subrouter: /kitchens/{kitchen}
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.Orders)
	r.Post("/orders/{oid}/lines/{lid}/prepared", h.MarkPrepared)
	r.Post("/orders/{oid}/lines/{lid}/picked-up", h.MarkPickedUp)
	r.Post("/pickups", h.BulkPickup)
	r.Get("/ledger", h.Ledger)
}

type kitchenLineResponse struct {
	OrderID uuid.UUID `json:"order_id"`
	LineID  uuid.UUID `json:"line_id"`
	Kitchen string    `json:"kitchen"`
	Status  string    `json:"status"`
}

type pickupResponse struct {
	kitchenLineResponse
	LedgerEntry order.PickupLedgerEntry `json:"ledger_entry"`
}

type bulkPickupRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids"`
}

// Orders handles GET /kitchens/{kitchen}/orders.
func (h *KitchenHandler) Orders(w http.ResponseWriter, r *http.Request) {
	views := h.svc.Orders(kitchenParam(r))
	if views == nil {
		views = []kitchen.View{}
	}
	writeJSON(w, http.StatusOK, views)
}

// MarkPrepared handles POST /kitchens/{kitchen}/orders/{oid}/lines/{lid}/prepared.
func (h *KitchenHandler) MarkPrepared(w http.ResponseWriter, r *http.Request) {
	k, orderID, lineID, ok := kitchenLineParams(w, r)
	if !ok {
		return
	}
	line, err := h.svc.MarkPrepared(context.WithoutCancel(r.Context()), k, orderID, lineID)
	if err != nil {
		writeError(w, "mark prepared", err)
		return
	}
	writeJSON(w, http.StatusOK, kitchenLineResponse{
		OrderID: orderID,
		LineID:  lineID,
		Kitchen: k,
		Status:  line.StatusFor(k),
	})
}

// MarkPickedUp handles POST /kitchens/{kitchen}/orders/{oid}/lines/{lid}/picked-up.
func (h *KitchenHandler) MarkPickedUp(w http.ResponseWriter, r *http.Request) {
	k, orderID, lineID, ok := kitchenLineParams(w, r)
	if !ok {
		return
	}
	line, entry, err := h.svc.MarkPickedUp(context.WithoutCancel(r.Context()), k, orderID, lineID)
	if err != nil {
		writeError(w, "mark picked up", err)
		return
	}
	writeJSON(w, http.StatusOK, pickupResponse{
		kitchenLineResponse: kitchenLineResponse{
			OrderID: orderID,
			LineID:  lineID,
			Kitchen: k,
			Status:  line.StatusFor(k),
		},
		LedgerEntry: entry,
	})
}

// BulkPickup handles POST /kitchens/{kitchen}/pickups. It always answers 200
// and reports per-portion failures in the body.
func (h *KitchenHandler) BulkPickup(w http.ResponseWriter, r *http.Request) {
	var req bulkPickupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.OrderIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_ids are required"})
		return
	}
	res := h.svc.BulkPickup(context.WithoutCancel(r.Context()), kitchenParam(r), req.OrderIDs)
	writeJSON(w, http.StatusOK, res)
}

// Ledger handles GET /kitchens/{kitchen}/ledger.
func (h *KitchenHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Ledger(r.Context(), kitchenParam(r))
	if err != nil {
		writeError(w, "list pickup ledger", err)
		return
	}
	if entries == nil {
		entries = []order.PickupLedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func kitchenLineParams(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, uuid.UUID, bool) {
	k := kitchenParam(r)
	if k == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing kitchen"})
		return "", uuid.Nil, uuid.Nil, false
	}
	orderID, ok := uuidParam(w, r, "oid", "order ID")
	if !ok {
		return "", uuid.Nil, uuid.Nil, false
	}
	lineID, ok := uuidParam(w, r, "lid", "line ID")
	if !ok {
		return "", uuid.Nil, uuid.Nil, false
	}
	return k, orderID, lineID, true
}
