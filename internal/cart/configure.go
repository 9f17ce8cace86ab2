package cart

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/order"
)

// Config is a fully configured item as a terminal submits it on
// "add to cart". Nil variants mean "keep the capability defaults".
type Config struct {
	ID       uuid.UUID                 `json:"id"`
	Name     string                    `json:"name"`
	Bundle   bool                      `json:"bundle"`
	Quantity int                       `json:"quantity"`
	Variant  *order.VariantSelection   `json:"variant,omitempty"`
	Custom   []string                  `json:"custom,omitempty"`
	Addons   map[string]ModifierConfig `json:"addons,omitempty"`
	Combos   map[string]ModifierConfig `json:"combos,omitempty"`
}

// ModifierConfig configures one addon or combo.
type ModifierConfig struct {
	Quantity int                     `json:"quantity"`
	Variant  *order.VariantSelection `json:"variant,omitempty"`
	Custom   []string                `json:"custom,omitempty"`
}

// Configure builds a priced line for item by replaying cfg as reducer
// actions, so a configured item is validated exactly like interactive edits.
func Configure(item *catalog.MenuItem, cfg Config, now time.Time) (order.CartLine, error) {
	line := NewItemLine(item, now)
	line.ID = cfg.ID

	for _, a := range configActions(cfg) {
		next, err := Apply(line, a, now)
		if err != nil {
			return order.CartLine{}, fmt.Errorf("%s: %w", describe(a), err)
		}
		line = next
	}
	return line, nil
}

// ConfigureBundle builds a priced bundle line; only quantity applies.
func ConfigureBundle(b *catalog.BundleOffer, cfg Config, now time.Time) (order.CartLine, error) {
	if cfg.Variant != nil || len(cfg.Custom) > 0 || len(cfg.Addons) > 0 || len(cfg.Combos) > 0 {
		return order.CartLine{}, order.ErrBundleImmutable
	}
	line := NewBundleLine(b, now)
	line.ID = cfg.ID
	next, err := Apply(line, Action{Type: ActionSetQuantity, Quantity: cfg.Quantity}, now)
	if err != nil {
		return order.CartLine{}, err
	}
	return next, nil
}

func configActions(cfg Config) []Action {
	actions := []Action{{Type: ActionSetQuantity, Quantity: cfg.Quantity}}
	if cfg.Variant != nil {
		actions = append(actions, Action{Type: ActionSetVariant, Variant: *cfg.Variant})
	}
	for _, sub := range cfg.Custom {
		actions = append(actions, Action{Type: ActionToggleCustom, Subheading: sub, Selected: true})
	}

	// Map order is random; sort so errors and pricing logs are stable.
	for _, name := range sortedKeys(cfg.Addons) {
		m := cfg.Addons[name]
		actions = append(actions, modifierActions(name, m,
			ActionSetAddonQuantity, ActionSetAddonVariant, ActionToggleAddonCustom)...)
	}
	for _, name := range sortedKeys(cfg.Combos) {
		m := cfg.Combos[name]
		actions = append(actions, modifierActions(name, m,
			ActionSetComboQuantity, ActionSetComboVariant, ActionToggleComboCustom)...)
	}
	return actions
}

func modifierActions(name string, m ModifierConfig, setQty, setVariant, toggle string) []Action {
	actions := []Action{{Type: setQty, Name: name, Quantity: m.Quantity}}
	if m.Quantity <= 0 {
		return actions
	}
	if m.Variant != nil {
		actions = append(actions, Action{Type: setVariant, Name: name, Variant: *m.Variant})
	}
	for _, sub := range m.Custom {
		actions = append(actions, Action{Type: toggle, Name: name, Subheading: sub, Selected: true})
	}
	return actions
}

func describe(a Action) string {
	if a.Name != "" {
		return a.Type + " " + a.Name
	}
	return a.Type
}

func sortedKeys(m map[string]ModifierConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
