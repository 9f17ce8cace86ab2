package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/restopos/api/internal/orderstore"
)

// OrderStoreHandler serves an Order Store to remote terminals over HTTP, in
// the wire format orderstore.Client speaks.
type OrderStoreHandler struct {
	store orderstore.Store
}

func NewOrderStoreHandler(store orderstore.Store) *OrderStoreHandler {
	return &OrderStoreHandler{store: store}
}

// RegisterRoutes registers the store endpoints. Expected to be mounted at /store/orders.
func (h *OrderStoreHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/lines/{lid}/kitchens/{kitchen}/prepared", h.MarkPrepared)
	r.Post("/{id}/lines/{lid}/kitchens/{kitchen}/picked-up", h.MarkPickedUp)
}

// List handles GET /store/orders.
func (h *OrderStoreHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrders(r.Context())
	if err != nil {
		writeError(w, "list store orders", err)
		return
	}
	resp := make([]orderstore.OrderPayload, len(orders))
	for i, o := range orders {
		resp[i] = orderstore.NewPayload(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /store/orders.
func (h *OrderStoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req orderstore.OrderPayload
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Lines) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lines are required"})
		return
	}

	placed, err := h.store.CreateOrder(r.Context(), req.Order)
	if err != nil {
		writeError(w, "create store order", err)
		return
	}
	writeJSON(w, http.StatusCreated, orderstore.NewPayload(placed))
}

// Update handles PUT /store/orders/{id}.
func (h *OrderStoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", "order ID")
	if !ok {
		return
	}
	var req orderstore.OrderPayload
	if !decodeBody(w, r, &req) {
		return
	}

	placed, err := h.store.UpdateOrder(r.Context(), id, req.Order)
	if err != nil {
		writeError(w, "update store order", err)
		return
	}
	writeJSON(w, http.StatusOK, orderstore.NewPayload(placed))
}

// MarkPrepared handles POST /store/orders/{id}/lines/{lid}/kitchens/{kitchen}/prepared.
func (h *OrderStoreHandler) MarkPrepared(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "store mark prepared", func(ctx context.Context, orderID, lineID uuid.UUID, k string) (orderstore.TransitionResponse, error) {
		status, err := h.store.MarkPrepared(ctx, orderID, lineID, k)
		return orderstore.TransitionResponse{Status: status}, err
	})
}

// MarkPickedUp handles POST /store/orders/{id}/lines/{lid}/kitchens/{kitchen}/picked-up.
func (h *OrderStoreHandler) MarkPickedUp(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "store mark picked up", func(ctx context.Context, orderID, lineID uuid.UUID, k string) (orderstore.TransitionResponse, error) {
		status, entry, err := h.store.MarkPickedUp(ctx, orderID, lineID, k)
		return orderstore.TransitionResponse{Status: status, LedgerEntry: &entry}, err
	})
}

type transitionFunc func(ctx context.Context, orderID, lineID uuid.UUID, kitchen string) (orderstore.TransitionResponse, error)

func (h *OrderStoreHandler) transition(w http.ResponseWriter, r *http.Request, op string, fn transitionFunc) {
	orderID, ok := uuidParam(w, r, "id", "order ID")
	if !ok {
		return
	}
	lineID, ok := uuidParam(w, r, "lid", "line ID")
	if !ok {
		return
	}
	k := kitchenParam(r)
	if k == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing kitchen"})
		return
	}

	resp, err := fn(r.Context(), orderID, lineID, k)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
