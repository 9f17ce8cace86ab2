package kitchen

import (
	"sort"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/order"
)

// Portion is the part of a cart line one kitchen prepares: the item
// itself, an active addon, an attached combo, or a bundle sub-item.
type Portion struct {
	LineID   uuid.UUID              `json:"line_id"`
	Kind     string                 `json:"kind"`
	Name     string                 `json:"name"`
	Quantity int                    `json:"quantity"`
	Kitchen  string                 `json:"kitchen"`
	Variant  order.VariantSelection `json:"variant"`
	Custom   []string               `json:"custom,omitempty"`
}

// Portions lists every portion of a line. Addons and combos with a zero
// quantity are not portions.
func Portions(line order.CartLine) []Portion {
	if line.IsBundle() {
		return bundlePortions(line)
	}

	item := Portion{
		LineID:   line.ID,
		Kind:     enum.PortionItem,
		Name:     line.Name,
		Quantity: line.Quantity,
		Kitchen:  enum.KitchenDefault,
		Variant:  line.Variant,
		Custom:   selected(line.Custom),
	}
	if line.Item != nil && line.Item.Kitchen != "" {
		item.Kitchen = line.Item.Kitchen
	}
	out := []Portion{item}

	for _, name := range activeNames(line.AddonQty) {
		p := modifierPortion(line, enum.PortionAddon, name, line.AddonQty[name], line.AddonSelection[name], item.Kitchen)
		if line.Item != nil {
			if m, ok := line.Item.Addon(name); ok {
				p.Kitchen = kitchenOf(m, item.Kitchen)
			}
		}
		out = append(out, p)
	}
	for _, name := range activeNames(line.ComboQty) {
		p := modifierPortion(line, enum.PortionCombo, name, line.ComboQty[name], line.ComboSelection[name], item.Kitchen)
		if line.Item != nil {
			if m, ok := line.Item.Combo(name); ok {
				p.Kitchen = kitchenOf(m, item.Kitchen)
			}
		}
		out = append(out, p)
	}
	return out
}

// PortionsFor lists the portions of line assigned to kitchen.
func PortionsFor(line order.CartLine, kitchen string) []Portion {
	var out []Portion
	for _, p := range Portions(line) {
		if p.Kitchen == kitchen {
			out = append(out, p)
		}
	}
	return out
}

// KitchensOf returns the distinct kitchens a line touches, sorted.
func KitchensOf(line order.CartLine) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range Portions(line) {
		if !seen[p.Kitchen] {
			seen[p.Kitchen] = true
			out = append(out, p.Kitchen)
		}
	}
	sort.Strings(out)
	return out
}

// Touches reports whether kitchen prepares any portion of line.
func Touches(line order.CartLine, kitchen string) bool {
	return len(PortionsFor(line, kitchen)) > 0
}

func bundlePortions(line order.CartLine) []Portion {
	if line.Bundle == nil || len(line.Bundle.Items) == 0 {
		return []Portion{{
			LineID:   line.ID,
			Kind:     enum.PortionBundle,
			Name:     line.Name,
			Quantity: line.Quantity,
			Kitchen:  enum.KitchenDefault,
		}}
	}
	out := make([]Portion, 0, len(line.Bundle.Items))
	for _, bi := range line.Bundle.Items {
		k := bi.Kitchen
		if k == "" {
			k = enum.KitchenDefault
		}
		out = append(out, Portion{
			LineID:   line.ID,
			Kind:     enum.PortionBundle,
			Name:     bi.Name,
			Quantity: line.Quantity,
			Kitchen:  k,
		})
	}
	return out
}

func modifierPortion(line order.CartLine, kind, name string, qty int, sel order.ModifierSelection, parent string) Portion {
	return Portion{
		LineID:   line.ID,
		Kind:     kind,
		Name:     name,
		Quantity: qty,
		Kitchen:  parent,
		Variant:  sel.Variant,
		Custom:   selected(sel.Custom),
	}
}

func kitchenOf(m *catalog.Modifier, parent string) string {
	if m.Kitchen != "" {
		return m.Kitchen
	}
	return parent
}

func activeNames(qty map[string]int) []string {
	var names []string
	for name, q := range qty {
		if q > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func selected(sel order.CustomSelection) []string {
	var out []string
	for name, on := range sel {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
