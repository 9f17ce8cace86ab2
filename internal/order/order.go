// Package order holds the cart and kitchen domain model shared by the
// pricing, cart and kitchen packages.
package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// VariantSelection is the chosen value of each fixed variant dimension.
// Empty strings and a nil Spicy mean "not selected".
type VariantSelection struct {
	Size  string `json:"size,omitempty"`
	Cold  string `json:"cold,omitempty"`
	Spicy *bool  `json:"spicy,omitempty"`
	Sugar string `json:"sugar,omitempty"`
}

// CustomSelection is the set of selected subheading names within one scope.
type CustomSelection map[string]bool

// Clone returns an independent copy.
func (c CustomSelection) Clone() CustomSelection {
	out := make(CustomSelection, len(c))
	for k, v := range c {
		if v {
			out[k] = true
		}
	}
	return out
}

// ModifierSelection is the configuration of one addon or combo on a line.
type ModifierSelection struct {
	Variant VariantSelection `json:"variant"`
	Custom  CustomSelection  `json:"custom"`
}

// LinePrices caches the last computed prices of a line. Values keep full
// precision; rounding happens only when they are formatted.
type LinePrices struct {
	Unit        decimal.Decimal            `json:"unit"`
	CustomTotal decimal.Decimal            `json:"custom_total"`
	Addons      map[string]decimal.Decimal `json:"addons"`
	Combos      map[string]decimal.Decimal `json:"combos"`
	AddonsTotal decimal.Decimal            `json:"addons_total"`
	CombosTotal decimal.Decimal            `json:"combos_total"`
	Total       decimal.Decimal            `json:"total"`
}

// CartLine is one priced entry of a cart. ID and KitchenStatuses survive
// every in-place edit; they are only dropped with the line itself.
type CartLine struct {
	ID       uuid.UUID `json:"id"`
	Kind     string    `json:"kind"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`

	// Last cached catalog fields. Pricing reads only these, so a line keeps
	// computing after its catalog entry disappears.
	Item   *catalog.MenuItem    `json:"item,omitempty"`
	Bundle *catalog.BundleOffer `json:"bundle,omitempty"`
	Stale  bool                 `json:"stale,omitempty"`

	Variant VariantSelection `json:"variant"`
	Custom  CustomSelection  `json:"custom"`

	AddonQty       map[string]int               `json:"addon_qty"`
	AddonSelection map[string]ModifierSelection `json:"addon_selection"`
	AddonImages    map[string]string            `json:"addon_images"`
	ComboQty       map[string]int               `json:"combo_qty"`
	ComboSelection map[string]ModifierSelection `json:"combo_selection"`
	ComboImages    map[string]string            `json:"combo_images"`
	SelectedCombos []string                     `json:"selected_combos"`

	Prices          LinePrices        `json:"prices"`
	KitchenStatuses map[string]string `json:"kitchen_statuses"`
}

// IsBundle reports whether the line is a bundle deal.
func (l *CartLine) IsBundle() bool {
	return l.Kind == enum.LineKindBundle
}

// StatusFor returns the line's status in a kitchen, PENDING when untouched.
func (l *CartLine) StatusFor(kitchen string) string {
	if s, ok := l.KitchenStatuses[kitchen]; ok && s != "" {
		return s
	}
	return enum.KitchenStatusPending
}

// Clone returns a deep copy so reducers never share maps with their input.
func (l CartLine) Clone() CartLine {
	out := l
	out.Custom = l.Custom.Clone()
	out.AddonQty = cloneInts(l.AddonQty)
	out.ComboQty = cloneInts(l.ComboQty)
	out.AddonSelection = cloneSelections(l.AddonSelection)
	out.ComboSelection = cloneSelections(l.ComboSelection)
	out.AddonImages = cloneStrings(l.AddonImages)
	out.ComboImages = cloneStrings(l.ComboImages)
	out.KitchenStatuses = cloneStrings(l.KitchenStatuses)
	out.SelectedCombos = append([]string(nil), l.SelectedCombos...)
	out.Prices.Addons = cloneAmounts(l.Prices.Addons)
	out.Prices.Combos = cloneAmounts(l.Prices.Combos)
	if l.Variant.Spicy != nil {
		v := *l.Variant.Spicy
		out.Variant.Spicy = &v
	}
	return out
}

// Order is a placed cart as the kitchens see it.
type Order struct {
	ID        uuid.UUID  `json:"id"`
	Number    string     `json:"number"`
	CartID    string     `json:"cart_id,omitempty"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Line returns a pointer into o.Lines for the given line id.
func (o *Order) Line(id uuid.UUID) (*CartLine, bool) {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// PickupLedgerEntry records one pickup. Written once, never mutated.
type PickupLedgerEntry struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	CartLineID uuid.UUID `json:"cart_line_id"`
	Kitchen    string    `json:"kitchen"`
	PickedUpAt time.Time `json:"picked_up_at"`
}

func cloneInts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAmounts(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSelections(m map[string]ModifierSelection) map[string]ModifierSelection {
	out := make(map[string]ModifierSelection, len(m))
	for k, v := range m {
		sel := ModifierSelection{Variant: v.Variant, Custom: v.Custom.Clone()}
		if v.Variant.Spicy != nil {
			s := *v.Variant.Spicy
			sel.Variant.Spicy = &s
		}
		out[k] = sel
	}
	return out
}
