package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/restopos/api/internal/cart"
	"github.com/restopos/api/internal/order"
	"github.com/restopos/api/internal/pricing"
)

// CartServicer defines the cart operations the handlers drive.
// Satisfied by *cart.Service; narrow interface for testability.
type CartServicer interface {
	Get(ctx context.Context, cartID string) (*cart.Cart, error)
	Add(ctx context.Context, cartID string, cfg cart.Config) (*cart.Cart, *order.CartLine, error)
	Apply(ctx context.Context, cartID string, lineID uuid.UUID, a cart.Action) (*cart.Cart, error)
	Remove(ctx context.Context, cartID string, lineID uuid.UUID) (*cart.Cart, error)
	Totals(ctx context.Context, cartID string) (*cart.Cart, pricing.OrderTotals, error)
	Refresh(ctx context.Context, cartID string) (*cart.Cart, error)
	Checkout(ctx context.Context, cartID string) (*cart.Cart, *order.Order, error)
}

// OrderTracker puts freshly placed orders on the kitchen board.
// Satisfied by *kitchen.Service.
type OrderTracker interface {
	Track(o order.Order)
}

// CartHandler handles cart endpoints.
type CartHandler struct {
	svc     CartServicer
	tracker OrderTracker
}

// NewCartHandler creates a CartHandler. tracker may be nil.
func NewCartHandler(svc CartServicer, tracker OrderTracker) *CartHandler {
	return &CartHandler{svc: svc, tracker: tracker}
}

// RegisterRoutes registers cart endpoints. Expected to be mounted at /carts.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{cid}", h.Get)
	r.Post("/{cid}/lines", h.AddLine)
	r.Patch("/{cid}/lines/{lid}", h.UpdateLine)
	r.Delete("/{cid}/lines/{lid}", h.RemoveLine)
	r.Get("/{cid}/totals", h.Totals)
	r.Post("/{cid}/refresh", h.Refresh)
	r.Post("/{cid}/checkout", h.Checkout)
}

// --- Request / Response types ---

type cartResponse struct {
	ID        string         `json:"id"`
	OrderID   *uuid.UUID     `json:"order_id"`
	Lines     []lineResponse `json:"lines"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type addLineResponse struct {
	Cart cartResponse `json:"cart"`
	Line lineResponse `json:"line"`
}

type cartTotalsResponse struct {
	Cart   cartResponse   `json:"cart"`
	Totals totalsResponse `json:"totals"`
}

type checkoutResponse struct {
	Cart  cartResponse  `json:"cart"`
	Order orderResponse `json:"order"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{
		ID:        c.ID,
		Lines:     toLineResponses(c.Lines),
		UpdatedAt: c.UpdatedAt,
	}
	if c.OrderID.Valid {
		id := c.OrderID.UUID
		resp.OrderID = &id
	}
	return resp
}

// --- Handlers ---

// Get handles GET /carts/{cid}.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		writeError(w, "get cart", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// AddLine handles POST /carts/{cid}/lines. An id in the body edits that
// line in place; otherwise the line is matched by name and size.
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var cfg cart.Config
	if !decodeBody(w, r, &cfg) {
		return
	}
	if cfg.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	c, line, err := h.svc.Add(r.Context(), chi.URLParam(r, "cid"), cfg)
	if err != nil {
		writeError(w, "add cart line", err)
		return
	}
	writeJSON(w, http.StatusOK, addLineResponse{Cart: toCartResponse(c), Line: toLineResponse(*line)})
}

// UpdateLine handles PATCH /carts/{cid}/lines/{lid} with one reducer action.
func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := uuidParam(w, r, "lid", "line ID")
	if !ok {
		return
	}
	var a cart.Action
	if !decodeBody(w, r, &a) {
		return
	}
	if a.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type is required"})
		return
	}

	c, err := h.svc.Apply(r.Context(), chi.URLParam(r, "cid"), lineID, a)
	if err != nil {
		writeError(w, "update cart line", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// RemoveLine handles DELETE /carts/{cid}/lines/{lid}.
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := uuidParam(w, r, "lid", "line ID")
	if !ok {
		return
	}
	c, err := h.svc.Remove(r.Context(), chi.URLParam(r, "cid"), lineID)
	if err != nil {
		writeError(w, "remove cart line", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// Totals handles GET /carts/{cid}/totals.
func (h *CartHandler) Totals(w http.ResponseWriter, r *http.Request) {
	c, t, err := h.svc.Totals(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		writeError(w, "cart totals", err)
		return
	}
	writeJSON(w, http.StatusOK, cartTotalsResponse{Cart: toCartResponse(c), Totals: toTotalsResponse(t)})
}

// Refresh handles POST /carts/{cid}/refresh.
func (h *CartHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Refresh(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		writeError(w, "refresh cart", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// Checkout handles POST /carts/{cid}/checkout. The Order Store call runs
// detached from the request so a client hanging up does not abort retries.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	c, placed, err := h.svc.Checkout(ctx, chi.URLParam(r, "cid"))
	if err != nil {
		writeError(w, "checkout", err)
		return
	}
	if h.tracker != nil {
		h.tracker.Track(*placed)
	}
	writeJSON(w, http.StatusOK, checkoutResponse{Cart: toCartResponse(c), Order: toOrderResponse(*placed)})
}
