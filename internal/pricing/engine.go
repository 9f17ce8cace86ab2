package pricing

import (
	"log"
	"time"

	"github.com/restopos/api/internal/order"
	"github.com/shopspring/decimal"
)

// DefaultVATRate applies when the VAT provider cannot be reached.
var DefaultVATRate = decimal.RequireFromString("0.10")

// LineTotals is the full price breakdown of one cart line.
type LineTotals struct {
	Unit        decimal.Decimal
	CustomTotal decimal.Decimal
	AddonsTotal decimal.Decimal
	CombosTotal decimal.Decimal
	Addons      map[string]ModifierPrice
	Combos      map[string]ModifierPrice
	Total       decimal.Decimal
}

// OrderTotals is the priced summary of a set of lines.
type OrderTotals struct {
	Subtotal   decimal.Decimal
	VATRate    decimal.Decimal
	VAT        decimal.Decimal
	GrandTotal decimal.Decimal
}

// ComputeLine prices a line from its own cached catalog fields and
// selections. Bundle lines ignore every modifier.
func ComputeLine(line order.CartLine, now time.Time) LineTotals {
	t := LineTotals{
		Addons: make(map[string]ModifierPrice),
		Combos: make(map[string]ModifierPrice),
	}
	qty := decimal.NewFromInt(int64(line.Quantity))

	if line.IsBundle() {
		if line.Bundle == nil {
			return zeroTotals(t)
		}
		t.Unit = line.Bundle.TotalPrice
		if line.Bundle.Offer.ActiveAt(now) {
			t.Unit = line.Bundle.Offer.Price
		}
		t.Total = t.Unit.Mul(qty)
		return t
	}

	item := line.Item
	if item == nil {
		return zeroTotals(t)
	}

	t.CustomTotal = AggregateCustom(item.CustomVariants, line.Custom)
	t.Unit = ResolvePrice(item, line.Variant, now).Add(t.CustomTotal)
	t.AddonsTotal = decimal.Zero
	t.CombosTotal = decimal.Zero

	for name, n := range line.AddonQty {
		if n <= 0 {
			continue
		}
		addon, ok := item.Addon(name)
		if !ok {
			log.Printf("WARN: line %s: addon %q missing from cached item, priced at 0", line.ID, name)
			continue
		}
		sel := line.AddonSelection[name]
		p := AggregateAddon(addon, n, sel.Variant, sel.Custom)
		t.Addons[name] = p
		t.AddonsTotal = t.AddonsTotal.Add(p.Extended)
	}

	for name, n := range line.ComboQty {
		if n <= 0 {
			continue
		}
		combo, ok := item.Combo(name)
		if !ok {
			log.Printf("WARN: line %s: combo %q missing from cached item, priced at 0", line.ID, name)
			continue
		}
		sel := line.ComboSelection[name]
		p := AggregateCombo(combo, n, sel.Variant, sel.Custom)
		t.Combos[name] = p
		t.CombosTotal = t.CombosTotal.Add(p.Extended)
	}

	t.Total = t.Unit.Mul(qty).Add(t.AddonsTotal).Add(t.CombosTotal)
	return t
}

// Reprice returns a copy of line with its price caches rewritten from
// ComputeLine.
func Reprice(line order.CartLine, now time.Time) order.CartLine {
	t := ComputeLine(line, now)
	out := line.Clone()
	out.Prices = order.LinePrices{
		Unit:        t.Unit,
		CustomTotal: t.CustomTotal,
		Addons:      make(map[string]decimal.Decimal, len(t.Addons)),
		Combos:      make(map[string]decimal.Decimal, len(t.Combos)),
		AddonsTotal: t.AddonsTotal,
		CombosTotal: t.CombosTotal,
		Total:       t.Total,
	}
	for name, p := range t.Addons {
		out.Prices.Addons[name] = p.PerUnit
	}
	for name, p := range t.Combos {
		out.Prices.Combos[name] = p.PerUnit
	}
	return out
}

// RepriceAll reprices every line.
func RepriceAll(lines []order.CartLine, now time.Time) []order.CartLine {
	out := make([]order.CartLine, len(lines))
	for i, l := range lines {
		out[i] = Reprice(l, now)
	}
	return out
}

// ComputeOrder sums the lines' cached totals and applies VAT. A negative
// rate is treated as unavailable and replaced by DefaultVATRate.
func ComputeOrder(lines []order.CartLine, vatRate decimal.Decimal) OrderTotals {
	if vatRate.IsNegative() {
		vatRate = DefaultVATRate
	}

	subtotal := Subtotal(lines)
	vat := subtotal.Mul(vatRate)
	return OrderTotals{
		Subtotal:   subtotal,
		VATRate:    vatRate,
		VAT:        vat,
		GrandTotal: subtotal.Add(vat),
	}
}

// Subtotal sums the cached line totals at full precision.
func Subtotal(lines []order.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Prices.Total)
	}
	return sum
}

func zeroTotals(t LineTotals) LineTotals {
	t.Unit = decimal.Zero
	t.CustomTotal = decimal.Zero
	t.AddonsTotal = decimal.Zero
	t.CombosTotal = decimal.Zero
	t.Total = decimal.Zero
	return t
}
