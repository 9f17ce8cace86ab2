package enum

// ── Group A: State machines ──

// Kitchen status of one (cart line, kitchen) pair. Only moves forward.
const (
	KitchenStatusPending   = "PENDING"
	KitchenStatusPreparing = "PREPARING"
	KitchenStatusPrepared  = "PREPARED"
	KitchenStatusPickedUp  = "PICKED_UP"
)

// ── Group B: Variant dimensions ──

const (
	SizeSmall  = "S"
	SizeMedium = "M"
	SizeLarge  = "L"
)

const (
	ColdWithIce    = "WITH_ICE"
	ColdWithoutIce = "WITHOUT_ICE"
)

const (
	SugarLess   = "LESS"
	SugarMedium = "MEDIUM"
	SugarExtra  = "EXTRA"
)

// ── Group C: Cart shape ──

const (
	LineKindItem   = "ITEM"
	LineKindBundle = "BUNDLE"
)

const (
	PortionItem   = "ITEM"
	PortionAddon  = "ADDON"
	PortionCombo  = "COMBO"
	PortionBundle = "BUNDLE_ITEM"
)

// ── Group D: Staff roles ──

const (
	UserRoleManager = "MANAGER"
	UserRoleCashier = "CASHIER"
	UserRoleKitchen = "KITCHEN"
)

// ── Group E: Configurable labels (no constraint, catalog decides) ──

const (
	KitchenGrill   = "GRILL"
	KitchenBar     = "BAR"
	KitchenPastry  = "PASTRY"
	KitchenDefault = "MAIN"
)

// IsSize reports whether s is one of the three size tiers.
func IsSize(s string) bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// IsCold reports whether s is a valid ice option.
func IsCold(s string) bool {
	switch s {
	case ColdWithIce, ColdWithoutIce:
		return true
	}
	return false
}

// IsSugar reports whether s is a valid sugar level.
func IsSugar(s string) bool {
	switch s {
	case SugarLess, SugarMedium, SugarExtra:
		return true
	}
	return false
}
