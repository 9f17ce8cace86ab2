package kitchen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burgerItem() *catalog.MenuItem {
	return &catalog.MenuItem{
		Name:    "Burger",
		Kitchen: enum.KitchenGrill,
		Addons: []catalog.Modifier{
			{Name: "Cola", Kitchen: enum.KitchenBar},
			{Name: "Pickles"},
		},
		Combos: []catalog.Modifier{{Name: "Fries", Kitchen: enum.KitchenGrill}},
	}
}

func burgerLine() order.CartLine {
	return order.CartLine{
		ID:              uuid.New(),
		Kind:            enum.LineKindItem,
		Name:            "Burger",
		Quantity:        2,
		Item:            burgerItem(),
		AddonQty:        map[string]int{"Cola": 1, "Pickles": 0},
		ComboQty:        map[string]int{"Fries": 2},
		KitchenStatuses: map[string]string{},
	}
}

func TestCanMark(t *testing.T) {
	tests := []struct {
		status   string
		prepared bool
		pickedUp bool
	}{
		{enum.KitchenStatusPending, true, false},
		{enum.KitchenStatusPreparing, true, false},
		{enum.KitchenStatusPrepared, false, true},
		{enum.KitchenStatusPickedUp, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.prepared, CanMarkPrepared(tt.status))
			assert.Equal(t, tt.pickedUp, CanMarkPickedUp(tt.status))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	require.NoError(t, ValidateTransition(enum.KitchenGrill, enum.KitchenStatusPending, enum.KitchenStatusPrepared))
	require.NoError(t, ValidateTransition(enum.KitchenGrill, enum.KitchenStatusPrepared, enum.KitchenStatusPickedUp))

	err := ValidateTransition(enum.KitchenGrill, enum.KitchenStatusPending, enum.KitchenStatusPickedUp)
	require.ErrorIs(t, err, order.ErrTransitionRejected)
	var te *order.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, enum.KitchenStatusPending, te.From)
	assert.Equal(t, enum.KitchenStatusPickedUp, te.To)

	err = ValidateTransition(enum.KitchenGrill, enum.KitchenStatusPickedUp, enum.KitchenStatusPrepared)
	assert.ErrorIs(t, err, order.ErrTransitionRejected)
}

func TestApplyTransition_ScenarioE(t *testing.T) {
	line := burgerLine()

	next, err := ApplyTransition(line, enum.KitchenGrill, enum.KitchenStatusPrepared)

	require.NoError(t, err)
	assert.Equal(t, enum.KitchenStatusPrepared, next.StatusFor(enum.KitchenGrill))
	assert.Equal(t, enum.KitchenStatusPending, next.StatusFor(enum.KitchenBar))
	assert.Empty(t, line.KitchenStatuses, "input must not change")
}

func TestApplyTransition_NeverMovesBackwards(t *testing.T) {
	line := burgerLine()
	line.KitchenStatuses[enum.KitchenGrill] = enum.KitchenStatusPickedUp

	next, err := ApplyTransition(line, enum.KitchenGrill, enum.KitchenStatusPrepared)

	require.ErrorIs(t, err, order.ErrTransitionRejected)
	assert.Equal(t, enum.KitchenStatusPickedUp, next.StatusFor(enum.KitchenGrill))

	_, err = ApplyTransition(line, enum.KitchenGrill, "COOKED")
	assert.ErrorIs(t, err, order.ErrTransitionRejected)
}

func TestReduce(t *testing.T) {
	line := burgerLine()
	o := order.Order{ID: uuid.New(), Lines: []order.CartLine{line}}

	next, err := Reduce(o, Transition{LineID: line.ID, Kitchen: enum.KitchenBar, Status: enum.KitchenStatusPrepared})
	require.NoError(t, err)
	assert.Equal(t, enum.KitchenStatusPrepared, next.Lines[0].StatusFor(enum.KitchenBar))
	assert.Empty(t, o.Lines[0].KitchenStatuses)

	_, err = Reduce(o, Transition{LineID: uuid.New(), Kitchen: enum.KitchenBar, Status: enum.KitchenStatusPrepared})
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestPortions(t *testing.T) {
	line := burgerLine()

	ps := Portions(line)

	require.Len(t, ps, 3, "zero-quantity addons are not portions")
	assert.Equal(t, Portion{LineID: line.ID, Kind: enum.PortionItem, Name: "Burger", Quantity: 2, Kitchen: enum.KitchenGrill}, ps[0])
	assert.Equal(t, "Cola", ps[1].Name)
	assert.Equal(t, enum.KitchenBar, ps[1].Kitchen)
	assert.Equal(t, enum.PortionAddon, ps[1].Kind)
	assert.Equal(t, "Fries", ps[2].Name)
	assert.Equal(t, enum.PortionCombo, ps[2].Kind)
	assert.Equal(t, 2, ps[2].Quantity)

	assert.Equal(t, []string{enum.KitchenBar, enum.KitchenGrill}, KitchensOf(line))
}

func TestPortions_ModifierInheritsParentKitchen(t *testing.T) {
	line := burgerLine()
	line.AddonQty["Pickles"] = 1

	ps := PortionsFor(line, enum.KitchenGrill)

	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Burger", "Pickles", "Fries"}, names)
}

func TestPortions_Bundle(t *testing.T) {
	line := order.CartLine{
		ID:       uuid.New(),
		Kind:     enum.LineKindBundle,
		Name:     "Family Deal",
		Quantity: 3,
		Bundle: &catalog.BundleOffer{
			Name: "Family Deal",
			Items: []catalog.BundleItem{
				{Name: "Burger", Kitchen: enum.KitchenGrill},
				{Name: "Shake", Kitchen: enum.KitchenBar},
				{Name: "Napkins"},
			},
		},
	}

	ps := Portions(line)

	require.Len(t, ps, 3)
	assert.Equal(t, enum.PortionBundle, ps[0].Kind)
	assert.Equal(t, 3, ps[1].Quantity)
	assert.Equal(t, enum.KitchenDefault, ps[2].Kitchen)
	assert.Equal(t, []string{enum.KitchenBar, enum.KitchenGrill, enum.KitchenDefault}, KitchensOf(line))
}

func TestFilter(t *testing.T) {
	burger := burgerLine()
	burger.KitchenStatuses[enum.KitchenGrill] = enum.KitchenStatusPrepared
	soup := order.CartLine{ID: uuid.New(), Kind: enum.LineKindItem, Name: "Soup", Quantity: 1,
		Item: &catalog.MenuItem{Name: "Soup", Kitchen: enum.KitchenPastry}}
	orders := []order.Order{
		{ID: uuid.New(), Number: "0001", Lines: []order.CartLine{burger}},
		{ID: uuid.New(), Number: "0002", Lines: []order.CartLine{soup}},
	}

	bar := Filter(orders, enum.KitchenBar)
	require.Len(t, bar, 1)
	require.Len(t, bar[0].Lines, 1)
	assert.Equal(t, enum.KitchenStatusPending, bar[0].Lines[0].Status)
	assert.True(t, bar[0].Lines[0].CanMarkPrepared)
	require.Len(t, bar[0].Lines[0].Portions, 1)
	assert.Equal(t, "Cola", bar[0].Lines[0].Portions[0].Name)

	grill := Filter(orders, enum.KitchenGrill)
	require.Len(t, grill, 1)
	assert.False(t, grill[0].Lines[0].CanMarkPrepared)
	assert.True(t, grill[0].Lines[0].CanMarkPickedUp)

	assert.Empty(t, Filter(orders, "NOWHERE"))
}
