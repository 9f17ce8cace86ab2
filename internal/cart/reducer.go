// Package cart applies configuration edits to cart lines and reconciles
// configured items into a cart without disturbing line identity or
// kitchen progress.
package cart

import (
	"time"

	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/order"
	"github.com/restopos/api/internal/pricing"
)

// Action types accepted by Apply.
const (
	ActionSetQuantity       = "SET_QUANTITY"
	ActionSetVariant        = "SET_VARIANT"
	ActionToggleCustom      = "TOGGLE_CUSTOM"
	ActionSetAddonQuantity  = "SET_ADDON_QUANTITY"
	ActionSetAddonVariant   = "SET_ADDON_VARIANT"
	ActionToggleAddonCustom = "TOGGLE_ADDON_CUSTOM"
	ActionSetComboQuantity  = "SET_COMBO_QUANTITY"
	ActionSetComboVariant   = "SET_COMBO_VARIANT"
	ActionToggleComboCustom = "TOGGLE_COMBO_CUSTOM"
)

// Action is one edit of a cart line. Which fields matter depends on Type:
// Name is the addon or combo, Subheading the custom variant option.
type Action struct {
	Type       string                 `json:"type"`
	Quantity   int                    `json:"quantity"`
	Name       string                 `json:"name,omitempty"`
	Subheading string                 `json:"subheading,omitempty"`
	Selected   bool                   `json:"selected"`
	Variant    order.VariantSelection `json:"variant"`
}

// Apply returns the line after one action, repriced at now. The input line
// is never modified; on error it is returned unchanged.
func Apply(line order.CartLine, a Action, now time.Time) (order.CartLine, error) {
	next := line.Clone()

	if next.IsBundle() && a.Type != ActionSetQuantity {
		return line, order.ErrBundleImmutable
	}

	var err error
	switch a.Type {
	case ActionSetQuantity:
		err = setQuantity(&next, a.Quantity)
	case ActionSetVariant:
		err = setVariant(&next, a.Variant)
	case ActionToggleCustom:
		err = toggleCustom(&next, a.Subheading, a.Selected)
	case ActionSetAddonQuantity:
		err = setModifierQuantity(&next, addonScope, a.Name, a.Quantity)
	case ActionSetAddonVariant:
		err = setModifierVariant(&next, addonScope, a.Name, a.Variant)
	case ActionToggleAddonCustom:
		err = toggleModifierCustom(&next, addonScope, a.Name, a.Subheading, a.Selected)
	case ActionSetComboQuantity:
		err = setModifierQuantity(&next, comboScope, a.Name, a.Quantity)
	case ActionSetComboVariant:
		err = setModifierVariant(&next, comboScope, a.Name, a.Variant)
	case ActionToggleComboCustom:
		err = toggleModifierCustom(&next, comboScope, a.Name, a.Subheading, a.Selected)
	default:
		err = order.ErrUnknownAction
	}
	if err != nil {
		return line, err
	}

	return pricing.Reprice(next, now), nil
}

// NewItemLine starts a line for a menu item with capability defaults.
// It has no id yet; Reconcile assigns one when the line is appended.
func NewItemLine(item *catalog.MenuItem, now time.Time) order.CartLine {
	line := order.CartLine{
		Kind:     enum.LineKindItem,
		Name:     item.Name,
		Quantity: 1,
		Item:     item,
		Variant:  pricing.DefaultSelection(item.Capabilities),
	}
	return pricing.Reprice(line, now)
}

// NewBundleLine starts a line for a bundle offer.
func NewBundleLine(b *catalog.BundleOffer, now time.Time) order.CartLine {
	line := order.CartLine{
		Kind:     enum.LineKindBundle,
		Name:     b.Name,
		Quantity: 1,
		Bundle:   b,
	}
	return pricing.Reprice(line, now)
}

func setQuantity(line *order.CartLine, qty int) error {
	if qty < 1 {
		return order.ErrInvalidQuantity
	}
	line.Quantity = qty
	return nil
}

func setVariant(line *order.CartLine, sel order.VariantSelection) error {
	if line.Item == nil {
		return order.ErrStaleReference
	}
	if err := ValidateSelection(line.Item.Capabilities, sel); err != nil {
		return err
	}
	line.Variant = sel
	return nil
}

func toggleCustom(line *order.CartLine, sub string, selected bool) error {
	if line.Item == nil {
		return order.ErrStaleReference
	}
	if !hasSubheading(line.Item.CustomVariants, sub) {
		return order.ErrUnknownCustom
	}
	line.Custom = setFlag(line.Custom, sub, selected)
	return nil
}

// scope addresses either the addon or the combo maps of a line.
type scope int

const (
	addonScope scope = iota
	comboScope
)

func lookupModifier(line *order.CartLine, s scope, name string) (*catalog.Modifier, error) {
	if line.Item == nil {
		return nil, order.ErrStaleReference
	}
	if s == addonScope {
		if m, ok := line.Item.Addon(name); ok {
			return m, nil
		}
		return nil, order.ErrUnknownAddon
	}
	if m, ok := line.Item.Combo(name); ok {
		return m, nil
	}
	return nil, order.ErrUnknownCombo
}

// modifierMaps returns the maps that hold the derived state of one scope,
// creating them when a line was decoded without them.
func modifierMaps(line *order.CartLine, s scope) (map[string]int, map[string]order.ModifierSelection, map[string]string) {
	if line.AddonQty == nil {
		line.AddonQty = make(map[string]int)
	}
	if line.AddonSelection == nil {
		line.AddonSelection = make(map[string]order.ModifierSelection)
	}
	if line.AddonImages == nil {
		line.AddonImages = make(map[string]string)
	}
	if line.ComboQty == nil {
		line.ComboQty = make(map[string]int)
	}
	if line.ComboSelection == nil {
		line.ComboSelection = make(map[string]order.ModifierSelection)
	}
	if line.ComboImages == nil {
		line.ComboImages = make(map[string]string)
	}
	if s == addonScope {
		return line.AddonQty, line.AddonSelection, line.AddonImages
	}
	return line.ComboQty, line.ComboSelection, line.ComboImages
}

func setModifierQuantity(line *order.CartLine, s scope, name string, qty int) error {
	if qty < 0 {
		return order.ErrInvalidQuantity
	}
	mod, err := lookupModifier(line, s, name)
	if err != nil {
		return err
	}

	qtys, sels, images := modifierMaps(line, s)

	if qty == 0 {
		// Removal drops every piece of derived state so a later re-toggle
		// starts from capability defaults.
		delete(qtys, name)
		delete(sels, name)
		delete(images, name)
		if s == addonScope {
			delete(line.Prices.Addons, name)
		} else {
			delete(line.Prices.Combos, name)
			line.SelectedCombos = removeName(line.SelectedCombos, name)
		}
		return nil
	}

	if qtys[name] <= 0 {
		sels[name] = order.ModifierSelection{
			Variant: pricing.DefaultSelection(mod.Capabilities),
			Custom:  order.CustomSelection{},
		}
		if mod.Image != "" {
			images[name] = mod.Image
		}
		if s == comboScope && !containsName(line.SelectedCombos, name) {
			line.SelectedCombos = append(line.SelectedCombos, name)
		}
	}
	qtys[name] = qty
	return nil
}

func setModifierVariant(line *order.CartLine, s scope, name string, sel order.VariantSelection) error {
	mod, err := lookupModifier(line, s, name)
	if err != nil {
		return err
	}
	qtys, sels, _ := modifierMaps(line, s)
	if qtys[name] <= 0 {
		return order.ErrModifierInactive
	}
	if err := ValidateSelection(mod.Capabilities, sel); err != nil {
		return err
	}
	cur := sels[name]
	cur.Variant = sel
	sels[name] = cur
	return nil
}

func toggleModifierCustom(line *order.CartLine, s scope, name, sub string, selected bool) error {
	mod, err := lookupModifier(line, s, name)
	if err != nil {
		return err
	}
	qtys, sels, _ := modifierMaps(line, s)
	if qtys[name] <= 0 {
		return order.ErrModifierInactive
	}
	if !hasSubheading(mod.CustomVariants, sub) {
		return order.ErrUnknownCustom
	}
	cur := sels[name]
	cur.Custom = setFlag(cur.Custom, sub, selected)
	sels[name] = cur
	return nil
}

// ValidateSelection checks a selection against a capability table.
// Size may be omitted (it defaults to medium) and sugar is optional; ice and
// spice must be chosen when offered. Setting a dimension that is not
// offered is rejected.
func ValidateSelection(caps catalog.Capabilities, sel order.VariantSelection) error {
	if sel.Size != "" {
		if !enum.IsSize(sel.Size) {
			return order.ErrInvalidVariant
		}
		if !caps.Size.Enabled {
			return order.ErrVariantDisabled
		}
	}

	if sel.Cold != "" && !enum.IsCold(sel.Cold) {
		return order.ErrInvalidVariant
	}
	if caps.Cold.Enabled && sel.Cold == "" {
		return order.ErrVariantRequired
	}
	if !caps.Cold.Enabled && sel.Cold != "" {
		return order.ErrVariantDisabled
	}

	if caps.Spicy.Enabled && sel.Spicy == nil {
		return order.ErrVariantRequired
	}
	if !caps.Spicy.Enabled && sel.Spicy != nil {
		return order.ErrVariantDisabled
	}

	if sel.Sugar != "" {
		if !enum.IsSugar(sel.Sugar) {
			return order.ErrInvalidVariant
		}
		if !caps.Sugar.Enabled {
			return order.ErrVariantDisabled
		}
	}
	return nil
}

func hasSubheading(groups []catalog.VariantGroup, name string) bool {
	for _, g := range groups {
		for _, sub := range g.Subheadings {
			if sub.Name == name {
				return true
			}
		}
	}
	return false
}

func setFlag(sel order.CustomSelection, name string, on bool) order.CustomSelection {
	if sel == nil {
		sel = order.CustomSelection{}
	}
	if on {
		sel[name] = true
	} else {
		delete(sel, name)
	}
	return sel
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func removeName(names []string, name string) []string {
	out := names[:0:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
