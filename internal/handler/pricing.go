package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/restopos/api/internal/cart"
	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/order"
	"github.com/restopos/api/internal/pricing"
)

// CatalogReader is the catalog lookup the pricing endpoints need.
// Satisfied by every catalog.Provider.
type CatalogReader interface {
	GetItem(ctx context.Context, name string) (*catalog.MenuItem, error)
	GetBundle(ctx context.Context, name string) (*catalog.BundleOffer, error)
}

// PricingHandler prices configurations without touching any cart.
type PricingHandler struct {
	catalog CatalogReader
	now     func() time.Time
}

func NewPricingHandler(c CatalogReader) *PricingHandler {
	return &PricingHandler{catalog: c, now: time.Now}
}

// RegisterRoutes mounts the endpoints under /pricing.
func (h *PricingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/resolve", h.Resolve)
	r.Post("/lines", h.Line)
}

type resolveRequest struct {
	Name    string                 `json:"name"`
	Variant order.VariantSelection `json:"variant"`
}

type resolveResponse struct {
	Name        string          `json:"name"`
	Price       string          `json:"price"`
	OfferActive bool            `json:"offer_active"`
	Nutrition   nutritionAmount `json:"nutrition"`
}

type nutritionAmount struct {
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
}

type lineQuoteResponse struct {
	Line lineResponse `json:"line"`
}

// Resolve handles POST /pricing/resolve. It returns the variant-resolved
// unit price of an item before custom variants and modifiers.
func (h *PricingHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	item, err := h.catalog.GetItem(r.Context(), req.Name)
	if err != nil {
		writeError(w, "resolve price", err)
		return
	}
	if err := cart.ValidateSelection(item.Capabilities, req.Variant); err != nil {
		writeError(w, "resolve price", err)
		return
	}

	now := h.now()
	n := item.Nutrition()
	writeJSON(w, http.StatusOK, resolveResponse{
		Name:        item.Name,
		Price:       pricing.Format(pricing.ResolvePrice(item, req.Variant, now)),
		OfferActive: item.Offer.ActiveAt(now),
		Nutrition: nutritionAmount{
			Calories: n.Calories.String(),
			Protein:  n.Protein.String(),
			Carbs:    n.Carbs.String(),
			Fat:      n.Fat.String(),
		},
	})
}

// Line handles POST /pricing/lines: the full configure-and-price pipeline
// for one item or bundle.
func (h *PricingHandler) Line(w http.ResponseWriter, r *http.Request) {
	var cfg cart.Config
	if !decodeBody(w, r, &cfg) {
		return
	}
	if cfg.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	now := h.now()
	var (
		line order.CartLine
		err  error
	)
	if cfg.Bundle {
		b, gerr := h.catalog.GetBundle(r.Context(), cfg.Name)
		if gerr != nil {
			writeError(w, "price line", gerr)
			return
		}
		line, err = cart.ConfigureBundle(b, cfg, now)
	} else {
		item, gerr := h.catalog.GetItem(r.Context(), cfg.Name)
		if gerr != nil {
			writeError(w, "price line", gerr)
			return
		}
		line, err = cart.Configure(item, cfg, now)
	}
	if err != nil {
		writeError(w, "price line", err)
		return
	}

	writeJSON(w, http.StatusOK, lineQuoteResponse{Line: toLineResponse(line)})
}
