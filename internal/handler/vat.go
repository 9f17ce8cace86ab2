package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/restopos/api/internal/vat"
	"github.com/shopspring/decimal"
)

// RateReader supplies the VAT rate. Satisfied by every vat.Provider.
type RateReader interface {
	GetRate(ctx context.Context) (decimal.Decimal, error)
}

// VATHandler publishes the rate this instance prices with.
type VATHandler struct {
	rates RateReader
}

func NewVATHandler(rates RateReader) *VATHandler {
	return &VATHandler{rates: rates}
}

func (h *VATHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
}

// Get handles GET /vat.
func (h *VATHandler) Get(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.GetRate(r.Context())
	if err != nil {
		writeError(w, "get vat rate", err)
		return
	}
	writeJSON(w, http.StatusOK, vat.RateResponse{Rate: rate})
}
