package handler

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/kitchen"
	"github.com/restopos/api/internal/order"
	"github.com/restopos/api/internal/pricing"
)

// --- Response types. Amounts are rounded here and nowhere else. ---

type priceResponse struct {
	Unit        string            `json:"unit"`
	CustomTotal string            `json:"custom_total"`
	Addons      map[string]string `json:"addons"`
	Combos      map[string]string `json:"combos"`
	AddonsTotal string            `json:"addons_total"`
	CombosTotal string            `json:"combos_total"`
	Total       string            `json:"total"`
}

type lineResponse struct {
	ID              uuid.UUID              `json:"id"`
	Kind            string                 `json:"kind"`
	Name            string                 `json:"name"`
	Quantity        int                    `json:"quantity"`
	Stale           bool                   `json:"stale"`
	Variant         order.VariantSelection `json:"variant"`
	Custom          []string               `json:"custom"`
	Addons          map[string]int         `json:"addons"`
	Combos          map[string]int         `json:"combos"`
	Kitchens        []string               `json:"kitchens"`
	KitchenStatuses map[string]string      `json:"kitchen_statuses"`
	Prices          priceResponse          `json:"prices"`
}

type totalsResponse struct {
	Subtotal   string `json:"subtotal"`
	VATRate    string `json:"vat_rate"`
	VAT        string `json:"vat"`
	GrandTotal string `json:"grand_total"`
}

type orderResponse struct {
	ID        uuid.UUID      `json:"id"`
	Number    string         `json:"number"`
	CartID    string         `json:"cart_id,omitempty"`
	Lines     []lineResponse `json:"lines"`
	CreatedAt time.Time      `json:"created_at"`
}

func toLineResponse(l order.CartLine) lineResponse {
	return lineResponse{
		ID:              l.ID,
		Kind:            l.Kind,
		Name:            l.Name,
		Quantity:        l.Quantity,
		Stale:           l.Stale,
		Variant:         l.Variant,
		Custom:          selectedNames(l.Custom),
		Addons:          activeQty(l.AddonQty),
		Combos:          activeQty(l.ComboQty),
		Kitchens:        kitchen.KitchensOf(l),
		KitchenStatuses: statusesOf(l),
		Prices: priceResponse{
			Unit:        pricing.Format(l.Prices.Unit),
			CustomTotal: pricing.Format(l.Prices.CustomTotal),
			Addons:      pricing.FormatMap(l.Prices.Addons),
			Combos:      pricing.FormatMap(l.Prices.Combos),
			AddonsTotal: pricing.Format(l.Prices.AddonsTotal),
			CombosTotal: pricing.Format(l.Prices.CombosTotal),
			Total:       pricing.Format(l.Prices.Total),
		},
	}
}

func toLineResponses(lines []order.CartLine) []lineResponse {
	out := make([]lineResponse, len(lines))
	for i, l := range lines {
		out[i] = toLineResponse(l)
	}
	return out
}

func toTotalsResponse(t pricing.OrderTotals) totalsResponse {
	return totalsResponse{
		Subtotal:   pricing.Format(t.Subtotal),
		VATRate:    t.VATRate.String(),
		VAT:        pricing.Format(t.VAT),
		GrandTotal: pricing.Format(t.GrandTotal),
	}
}

func toOrderResponse(o order.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		Number:    o.Number,
		CartID:    o.CartID,
		Lines:     toLineResponses(o.Lines),
		CreatedAt: o.CreatedAt,
	}
}

// statusesOf lists every kitchen of the line, PENDING until told otherwise.
func statusesOf(l order.CartLine) map[string]string {
	out := make(map[string]string)
	for _, k := range kitchen.KitchensOf(l) {
		out[k] = l.StatusFor(k)
	}
	return out
}

func selectedNames(sel order.CustomSelection) []string {
	out := []string{}
	for name, on := range sel {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func activeQty(m map[string]int) map[string]int {
	out := make(map[string]int)
	for name, q := range m {
		if q > 0 {
			out[name] = q
		}
	}
	return out
}
