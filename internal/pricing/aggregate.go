package pricing

import (
	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/order"
	"github.com/shopspring/decimal"
)

// ModifierPrice is the price of one addon or combo entry on a line.
type ModifierPrice struct {
	PerUnit  decimal.Decimal
	Extended decimal.Decimal
}

// AggregateCustom sums the selected subheadings of every enabled group.
// Disabled groups contribute nothing even when a selection flag is set.
func AggregateCustom(groups []catalog.VariantGroup, sel order.CustomSelection) decimal.Decimal {
	total := decimal.Zero
	if len(sel) == 0 {
		return total
	}
	for _, g := range groups {
		if !g.Enabled {
			continue
		}
		for _, sub := range g.Subheadings {
			if sel[sub.Name] {
				total = total.Add(sub.Price)
			}
		}
	}
	return total
}

// AggregateAddon prices an addon: per unit is its variant price plus its
// custom variants, extended is per unit times qty.
func AggregateAddon(addon *catalog.Modifier, qty int, variant order.VariantSelection, custom order.CustomSelection) ModifierPrice {
	return aggregateModifier(addon, qty, variant, custom)
}

// AggregateCombo prices an attached combo exactly like an addon.
func AggregateCombo(combo *catalog.Modifier, qty int, variant order.VariantSelection, custom order.CustomSelection) ModifierPrice {
	return aggregateModifier(combo, qty, variant, custom)
}

func aggregateModifier(mod *catalog.Modifier, qty int, variant order.VariantSelection, custom order.CustomSelection) ModifierPrice {
	if qty < 0 {
		qty = 0
	}
	perUnit := ResolveModifier(mod, variant).Add(AggregateCustom(mod.CustomVariants, custom))
	return ModifierPrice{
		PerUnit:  perUnit,
		Extended: perUnit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// DefaultSelection returns the initial selection for a capability table:
// medium size, no ice, not spicy and the default sugar level, each only
// when that dimension is offered.
func DefaultSelection(caps catalog.Capabilities) order.VariantSelection {
	sel := order.VariantSelection{}
	if caps.Size.Enabled {
		sel.Size = enum.SizeMedium
	}
	if caps.Cold.Enabled {
		sel.Cold = enum.ColdWithoutIce
	}
	if caps.Spicy.Enabled {
		notSpicy := false
		sel.Spicy = &notSpicy
	}
	if caps.Sugar.Enabled {
		sel.Sugar = caps.Sugar.DefaultLevel
	}
	return sel
}
