package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func boolPtr(b bool) *bool { return &b }

func sizedItem() *catalog.MenuItem {
	return &catalog.MenuItem{
		Name:      "Rice Bowl",
		Kitchen:   enum.KitchenGrill,
		BasePrice: d("100"),
		Capabilities: catalog.Capabilities{
			Size:  catalog.SizeCapability{Enabled: true, Small: d("90"), Medium: d("100"), Large: d("110")},
			Spicy: catalog.SpicyCapability{Enabled: true, SpicyPrice: d("30")},
		},
	}
}

func latteAddon() catalog.Modifier {
	return catalog.Modifier{
		Name:    "Iced Latte",
		Price:   d("45"),
		Kitchen: enum.KitchenBar,
		Capabilities: catalog.Capabilities{
			Size: catalog.SizeCapability{Enabled: true, Small: d("40"), Medium: d("50"), Large: d("60")},
			Cold: catalog.ColdCapability{Enabled: true, IcePrice: d("10")},
		},
		CustomVariants: []catalog.VariantGroup{{
			Heading: "Milk",
			Enabled: true,
			Subheadings: []catalog.Subheading{
				{Name: "Oat", Price: d("15")},
				{Name: "Soy", Price: d("12")},
			},
		}},
	}
}

func itemLine(item *catalog.MenuItem, qty int, sel order.VariantSelection) order.CartLine {
	return order.CartLine{
		ID:       uuid.New(),
		Kind:     enum.LineKindItem,
		Name:     item.Name,
		Quantity: qty,
		Item:     item,
		Variant:  sel,
	}
}

func TestResolveVariant_ScenarioA(t *testing.T) {
	item := sizedItem()
	line := itemLine(item, 2, order.VariantSelection{Size: enum.SizeLarge, Spicy: boolPtr(true)})

	totals := ComputeLine(line, now)

	assertAmount(t, "140", totals.Unit)
	assertAmount(t, "280", totals.Total)
}

func TestResolveVariant_ScenarioB_OfferReplacesTier(t *testing.T) {
	item := sizedItem()
	item.Offer = &catalog.Offer{Price: d("80"), StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)}
	line := itemLine(item, 1, order.VariantSelection{Size: enum.SizeSmall})

	totals := ComputeLine(line, now)

	assertAmount(t, "70", totals.Unit)
	assertAmount(t, "70", totals.Total)
}

func TestResolveVariant_OfferTiers(t *testing.T) {
	item := sizedItem()
	item.Offer = &catalog.Offer{Price: d("80"), StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)}

	tests := []struct {
		size string
		want string
	}{
		{enum.SizeSmall, "70"},
		{enum.SizeMedium, "80"},
		{enum.SizeLarge, "90"},
		{"", "80"},
	}
	for _, tt := range tests {
		t.Run("size="+tt.size, func(t *testing.T) {
			assertAmount(t, tt.want, ResolvePrice(item, order.VariantSelection{Size: tt.size}, now))
		})
	}
}

func TestResolveVariant_OfferSurchargesStillApply(t *testing.T) {
	item := sizedItem()
	item.Offer = &catalog.Offer{Price: d("80"), StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)}

	got := ResolvePrice(item, order.VariantSelection{Size: enum.SizeLarge, Spicy: boolPtr(true)}, now)

	assertAmount(t, "120", got)
}

func TestResolveVariant_OfferWindowHalfOpen(t *testing.T) {
	start := now
	end := now.Add(2 * time.Hour)
	item := sizedItem()
	item.Offer = &catalog.Offer{Price: d("80"), StartTime: start, EndTime: end}
	sel := order.VariantSelection{Size: enum.SizeSmall}

	assertAmount(t, "90", ResolvePrice(item, sel, start.Add(-time.Nanosecond)), "before start")
	assertAmount(t, "70", ResolvePrice(item, sel, start), "at start")
	assertAmount(t, "70", ResolvePrice(item, sel, end.Add(-time.Nanosecond)), "just before end")
	assertAmount(t, "90", ResolvePrice(item, sel, end), "at end")
	assertAmount(t, "90", ResolvePrice(item, sel, end.Add(time.Hour)), "after end")
}

func TestResolveVariant_DefaultTierIsMedium(t *testing.T) {
	assertAmount(t, "100", ResolvePrice(sizedItem(), order.VariantSelection{}, now))
}

func TestResolveVariant_NoSizeUsesBasePrice(t *testing.T) {
	item := &catalog.MenuItem{Name: "Soup", BasePrice: d("55")}
	assertAmount(t, "55", ResolvePrice(item, order.VariantSelection{Size: enum.SizeLarge}, now))
}

func TestResolveVariant_ColdAndSpicy(t *testing.T) {
	caps := catalog.Capabilities{
		Cold:  catalog.ColdCapability{Enabled: true, IcePrice: d("10")},
		Spicy: catalog.SpicyCapability{Enabled: true, SpicyPrice: d("30"), NonSpicyPrice: d("5")},
	}

	tests := []struct {
		name string
		sel  order.VariantSelection
		want string
	}{
		{"with ice", order.VariantSelection{Cold: enum.ColdWithIce}, "60"},
		{"without ice", order.VariantSelection{Cold: enum.ColdWithoutIce}, "50"},
		{"spicy", order.VariantSelection{Spicy: boolPtr(true)}, "80"},
		{"not spicy", order.VariantSelection{Spicy: boolPtr(false)}, "55"},
		{"nothing selected", order.VariantSelection{}, "50"},
		{"sugar is free", order.VariantSelection{Sugar: enum.SugarExtra}, "50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertAmount(t, tt.want, ResolveVariant(caps, d("50"), nil, tt.sel, now))
		})
	}
}

func TestResolveVariant_DisabledDimensionsIgnored(t *testing.T) {
	got := ResolveVariant(catalog.Capabilities{}, d("50"), nil, order.VariantSelection{
		Size:  enum.SizeLarge,
		Cold:  enum.ColdWithIce,
		Spicy: boolPtr(true),
	}, now)
	assertAmount(t, "50", got)
}

func TestResolveVariant_NeverNegative(t *testing.T) {
	item := sizedItem()
	item.Offer = &catalog.Offer{Price: d("4"), StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)}

	for _, size := range []string{enum.SizeSmall, enum.SizeMedium, enum.SizeLarge, ""} {
		for _, spicy := range []*bool{nil, boolPtr(true), boolPtr(false)} {
			got := ResolvePrice(item, order.VariantSelection{Size: size, Spicy: spicy}, now)
			assert.False(t, got.IsNegative(), "size=%s", size)
		}
	}
	assertAmount(t, "0", ResolvePrice(item, order.VariantSelection{Size: enum.SizeSmall}, now))
}

func TestAggregateCustom_DisabledGroupContributesNothing(t *testing.T) {
	groups := []catalog.VariantGroup{
		{Heading: "Milk", Enabled: true, Subheadings: []catalog.Subheading{{Name: "Oat", Price: d("15")}}},
		{Heading: "Syrup", Enabled: false, Subheadings: []catalog.Subheading{{Name: "Vanilla", Price: d("8")}}},
	}

	got := AggregateCustom(groups, order.CustomSelection{"Oat": true, "Vanilla": true})

	assertAmount(t, "15", got)
}

func TestAggregateCustom_FalseFlagIgnored(t *testing.T) {
	groups := []catalog.VariantGroup{
		{Heading: "Milk", Enabled: true, Subheadings: []catalog.Subheading{{Name: "Oat", Price: d("15")}}},
	}
	assertAmount(t, "0", AggregateCustom(groups, order.CustomSelection{"Oat": false}))
}

func TestAggregateAddon_ScenarioC(t *testing.T) {
	addon := latteAddon()

	got := AggregateAddon(&addon, 2,
		order.VariantSelection{Size: enum.SizeMedium, Cold: enum.ColdWithIce},
		order.CustomSelection{"Oat": true})

	assertAmount(t, "75", got.PerUnit)
	assertAmount(t, "150", got.Extended)
}

func TestAggregateCombo_MatchesAddon(t *testing.T) {
	combo := latteAddon()
	sel := order.VariantSelection{Size: enum.SizeLarge}

	a := AggregateAddon(&combo, 3, sel, nil)
	c := AggregateCombo(&combo, 3, sel, nil)

	assert.True(t, a.PerUnit.Equal(c.PerUnit))
	assert.True(t, a.Extended.Equal(c.Extended))
}

func TestDefaultSelection(t *testing.T) {
	caps := catalog.Capabilities{
		Size:  catalog.SizeCapability{Enabled: true},
		Cold:  catalog.ColdCapability{Enabled: true},
		Spicy: catalog.SpicyCapability{Enabled: true},
		Sugar: catalog.SugarCapability{Enabled: true, DefaultLevel: enum.SugarLess},
	}

	sel := DefaultSelection(caps)

	assert.Equal(t, enum.SizeMedium, sel.Size)
	assert.Equal(t, enum.ColdWithoutIce, sel.Cold)
	require.NotNil(t, sel.Spicy)
	assert.False(t, *sel.Spicy)
	assert.Equal(t, enum.SugarLess, sel.Sugar)

	empty := DefaultSelection(catalog.Capabilities{})
	assert.Equal(t, order.VariantSelection{}, empty)
}

func TestComputeLine_WithAddonsAndCombos(t *testing.T) {
	item := sizedItem()
	item.CustomVariants = []catalog.VariantGroup{{
		Heading: "Topping", Enabled: true,
		Subheadings: []catalog.Subheading{{Name: "Egg", Price: d("12.5")}},
	}}
	item.Addons = []catalog.Modifier{latteAddon()}
	item.Combos = []catalog.Modifier{{Name: "Fries", Price: d("25"), Kitchen: enum.KitchenGrill}}

	line := itemLine(item, 2, order.VariantSelection{Size: enum.SizeMedium, Spicy: boolPtr(false)})
	line.Custom = order.CustomSelection{"Egg": true}
	line.AddonQty = map[string]int{"Iced Latte": 2}
	line.AddonSelection = map[string]order.ModifierSelection{
		"Iced Latte": {Variant: order.VariantSelection{Size: enum.SizeMedium, Cold: enum.ColdWithIce}, Custom: order.CustomSelection{"Oat": true}},
	}
	line.ComboQty = map[string]int{"Fries": 1}

	totals := ComputeLine(line, now)

	assertAmount(t, "12.5", totals.CustomTotal)
	assertAmount(t, "112.5", totals.Unit)
	assertAmount(t, "150", totals.AddonsTotal)
	assertAmount(t, "25", totals.CombosTotal)
	assertAmount(t, "400", totals.Total) // 112.5*2 + 150 + 25
	assertAmount(t, "75", totals.Addons["Iced Latte"].PerUnit)
}

func TestComputeLine_ZeroQuantityEntriesIgnored(t *testing.T) {
	item := sizedItem()
	item.Addons = []catalog.Modifier{latteAddon()}
	line := itemLine(item, 1, order.VariantSelection{})
	line.AddonQty = map[string]int{"Iced Latte": 0}

	totals := ComputeLine(line, now)

	assertAmount(t, "100", totals.Total)
	assert.Empty(t, totals.Addons)
}

func TestComputeLine_Idempotent(t *testing.T) {
	item := sizedItem()
	item.Addons = []catalog.Modifier{latteAddon()}
	line := itemLine(item, 3, order.VariantSelection{Size: enum.SizeSmall, Spicy: boolPtr(true)})
	line.AddonQty = map[string]int{"Iced Latte": 1}
	line.AddonSelection = map[string]order.ModifierSelection{"Iced Latte": {Variant: order.VariantSelection{Cold: enum.ColdWithIce}}}

	first := ComputeLine(line, now)
	for i := 0; i < 5; i++ {
		again := ComputeLine(line, now)
		assert.True(t, first.Total.Equal(again.Total))
		assert.True(t, first.Unit.Equal(again.Unit))
		assert.True(t, first.AddonsTotal.Equal(again.AddonsTotal))
	}
}

func TestComputeLine_Bundle(t *testing.T) {
	bundle := &catalog.BundleOffer{
		Name:       "Family Deal",
		TotalPrice: d("300"),
		Items:      []catalog.BundleItem{{Name: "Burger", Kitchen: enum.KitchenGrill}},
	}
	line := order.CartLine{ID: uuid.New(), Kind: enum.LineKindBundle, Name: bundle.Name, Quantity: 2, Bundle: bundle}

	assertAmount(t, "600", ComputeLine(line, now).Total)

	bundle.Offer = &catalog.Offer{Price: d("250"), StartTime: now.Add(-time.Minute), EndTime: now.Add(time.Minute)}
	assertAmount(t, "500", ComputeLine(line, now).Total)
	assertAmount(t, "600", ComputeLine(line, now.Add(time.Minute)).Total)
}

func TestReprice_WritesCaches(t *testing.T) {
	item := sizedItem()
	item.Addons = []catalog.Modifier{latteAddon()}
	line := itemLine(item, 1, order.VariantSelection{Size: enum.SizeLarge})
	line.AddonQty = map[string]int{"Iced Latte": 1}
	line.AddonSelection = map[string]order.ModifierSelection{"Iced Latte": {Variant: order.VariantSelection{Size: enum.SizeSmall}}}

	priced := Reprice(line, now)

	assertAmount(t, "110", priced.Prices.Unit)
	assertAmount(t, "40", priced.Prices.Addons["Iced Latte"])
	assertAmount(t, "150", priced.Prices.Total)
	assert.True(t, line.Prices.Total.IsZero(), "input line must not be mutated")
}

func TestComputeOrder(t *testing.T) {
	a := order.CartLine{Prices: order.LinePrices{Total: d("280")}}
	b := order.CartLine{Prices: order.LinePrices{Total: d("120.55")}}

	totals := ComputeOrder([]order.CartLine{a, b}, d("0.10"))

	assertAmount(t, "400.55", totals.Subtotal)
	assertAmount(t, "40.055", totals.VAT)
	assertAmount(t, "440.605", totals.GrandTotal)
	assert.Equal(t, "440.61", Format(totals.GrandTotal))
}

func TestComputeOrder_NegativeRateFallsBack(t *testing.T) {
	a := order.CartLine{Prices: order.LinePrices{Total: d("100")}}

	totals := ComputeOrder([]order.CartLine{a}, d("-1"))

	assertAmount(t, "0.10", totals.VATRate)
	assertAmount(t, "110", totals.GrandTotal)
}

func TestSubtotal(t *testing.T) {
	lines := []order.CartLine{
		{Prices: order.LinePrices{Total: d("40.125")}},
		{Prices: order.LinePrices{Total: d("0.005")}},
	}
	assertAmount(t, "40.13", Subtotal(lines))
	assert.True(t, Subtotal(nil).IsZero())
}

func TestComputeOrder_Empty(t *testing.T) {
	totals := ComputeOrder(nil, DefaultVATRate)
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.00", Format(decimal.Zero))
	assert.Equal(t, "12.35", Format(d("12.345")))
	assert.Equal(t, "7.00", Format(d("7")))
	assert.Equal(t, map[string]string{"a": "1.50"}, FormatMap(map[string]decimal.Decimal{"a": d("1.5")}))
}
