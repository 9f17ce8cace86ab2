// Package pricing turns variant and modifier selections into amounts.
// Every function here is pure: identical input gives identical output and
// nothing touches the network.
package pricing

import (
	"time"

	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/order"
	"github.com/shopspring/decimal"
)

// offerTierStep is the fixed spread between offer-derived tiers:
// S = offer - 10, M = offer, L = offer + 10, whatever the entity's own tier prices.
var offerTierStep = decimal.NewFromInt(10)

// ResolveVariant prices one variant selection against a capability table.
// base is the entity's own price, used when size is not offered. An offer
// active at now replaces the size tier; ice and spice surcharges still add
// on top. Sugar never contributes. The result is never negative.
func ResolveVariant(caps catalog.Capabilities, base decimal.Decimal, offer *catalog.Offer, sel order.VariantSelection, now time.Time) decimal.Decimal {
	price := tierPrice(caps.Size, base, offer, sel.Size, now)

	if caps.Cold.Enabled && sel.Cold == enum.ColdWithIce {
		price = price.Add(caps.Cold.IcePrice)
	}

	if caps.Spicy.Enabled && sel.Spicy != nil {
		if *sel.Spicy {
			price = price.Add(caps.Spicy.SpicyPrice)
		} else {
			price = price.Add(caps.Spicy.NonSpicyPrice)
		}
	}

	return nonNegative(price)
}

// ResolvePrice prices a menu item's variant selection, offers included.
func ResolvePrice(item *catalog.MenuItem, sel order.VariantSelection, now time.Time) decimal.Decimal {
	return ResolveVariant(item.Capabilities, item.BasePrice, item.Offer, sel, now)
}

// ResolveModifier prices an addon's or combo's variant selection.
// Modifiers carry no offers of their own.
func ResolveModifier(mod *catalog.Modifier, sel order.VariantSelection) decimal.Decimal {
	return ResolveVariant(mod.Capabilities, mod.Price, nil, sel, time.Time{})
}

func tierPrice(size catalog.SizeCapability, base decimal.Decimal, offer *catalog.Offer, tier string, now time.Time) decimal.Decimal {
	if !enum.IsSize(tier) {
		tier = enum.SizeMedium
	}

	if offer.ActiveAt(now) {
		switch {
		case !size.Enabled:
			return nonNegative(offer.Price)
		case tier == enum.SizeSmall:
			return nonNegative(offer.Price.Sub(offerTierStep))
		case tier == enum.SizeLarge:
			return offer.Price.Add(offerTierStep)
		default:
			return nonNegative(offer.Price)
		}
	}

	if !size.Enabled {
		return nonNegative(base)
	}
	return nonNegative(size.Tier(tier))
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
