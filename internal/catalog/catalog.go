// Package catalog holds the menu entities the pricing engine reads from.
// Variant capabilities are decided once when the catalog is decoded, so the
// rest of the engine never guards against missing capability fields.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/restopos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by catalog providers.
var (
	ErrItemNotFound   = errors.New("menu item not found")
	ErrBundleNotFound = errors.New("bundle offer not found")
	ErrInvalidEntry   = errors.New("invalid catalog entry")
)

// Provider resolves catalog entries by name.
// Catalog data is read-only for the duration of a configuration session.
type Provider interface {
	GetItem(ctx context.Context, name string) (*MenuItem, error)
	GetBundle(ctx context.Context, name string) (*BundleOffer, error)
}

// Offer is a promotional price valid in the half-open window [StartTime, EndTime).
type Offer struct {
	Price     decimal.Decimal `json:"price"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
}

// ActiveAt reports whether now falls inside the offer window.
func (o *Offer) ActiveAt(now time.Time) bool {
	if o == nil {
		return false
	}
	return !now.Before(o.StartTime) && now.Before(o.EndTime)
}

// SizeCapability prices the S/M/L tiers. A disabled size leaves the entity's
// own price in effect.
type SizeCapability struct {
	Enabled bool            `json:"enabled"`
	Small   decimal.Decimal `json:"small"`
	Medium  decimal.Decimal `json:"medium"`
	Large   decimal.Decimal `json:"large"`
}

// Tier returns the declared price of a tier; unknown tiers read as medium.
func (c SizeCapability) Tier(size string) decimal.Decimal {
	switch size {
	case enum.SizeSmall:
		return c.Small
	case enum.SizeLarge:
		return c.Large
	default:
		return c.Medium
	}
}

type ColdCapability struct {
	Enabled  bool            `json:"enabled"`
	IcePrice decimal.Decimal `json:"ice_price"`
}

type SpicyCapability struct {
	Enabled       bool            `json:"enabled"`
	SpicyPrice    decimal.Decimal `json:"spicy_price"`
	NonSpicyPrice decimal.Decimal `json:"non_spicy_price"`
}

// SugarCapability is carried for display only and never affects price.
type SugarCapability struct {
	Enabled      bool   `json:"enabled"`
	DefaultLevel string `json:"default_level"`
}

// Capabilities is the fixed variant set shared by items, addons and combos.
type Capabilities struct {
	Size  SizeCapability  `json:"size"`
	Cold  ColdCapability  `json:"cold"`
	Spicy SpicyCapability `json:"spicy"`
	Sugar SugarCapability `json:"sugar"`
}

// Subheading is one priced option inside a custom variant group.
type Subheading struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}

// VariantGroup is a restaurant-defined option set ("heading" + subheadings).
type VariantGroup struct {
	Heading     string       `json:"heading"`
	Enabled     bool         `json:"enabled"`
	Subheadings []Subheading `json:"subheadings"`
}

// Modifier is an addon or attached combo scoped under a parent item.
// Both share one shape and are priced the same way.
type Modifier struct {
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Image          string          `json:"image,omitempty"`
	Kitchen        string          `json:"kitchen"`
	Capabilities   Capabilities    `json:"capabilities"`
	CustomVariants []VariantGroup  `json:"custom_variants"`
}

// Ingredient only feeds the nutrition summary.
type Ingredient struct {
	Name     string          `json:"name"`
	Calories decimal.Decimal `json:"calories"`
	Protein  decimal.Decimal `json:"protein"`
	Carbs    decimal.Decimal `json:"carbs"`
	Fat      decimal.Decimal `json:"fat"`
}

// Nutrition is the per-unit sum over an item's ingredients.
type Nutrition struct {
	Calories decimal.Decimal `json:"calories"`
	Protein  decimal.Decimal `json:"protein"`
	Carbs    decimal.Decimal `json:"carbs"`
	Fat      decimal.Decimal `json:"fat"`
}

// MenuItem is a regular, configurable dish.
type MenuItem struct {
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Image          string          `json:"image,omitempty"`
	Kitchen        string          `json:"kitchen"`
	BasePrice      decimal.Decimal `json:"base_price"`
	Offer          *Offer          `json:"offer,omitempty"`
	Capabilities   Capabilities    `json:"capabilities"`
	CustomVariants []VariantGroup  `json:"custom_variants"`
	Addons         []Modifier      `json:"addons"`
	Combos         []Modifier      `json:"combos"`
	Ingredients    []Ingredient    `json:"ingredients"`
}

// Addon looks up an addon offered under this item.
func (m *MenuItem) Addon(name string) (*Modifier, bool) {
	return findModifier(m.Addons, name)
}

// Combo looks up an attached combo offered under this item.
func (m *MenuItem) Combo(name string) (*Modifier, bool) {
	return findModifier(m.Combos, name)
}

// Nutrition sums the item's ingredients.
func (m *MenuItem) Nutrition() Nutrition {
	n := Nutrition{}
	for _, ing := range m.Ingredients {
		n.Calories = n.Calories.Add(ing.Calories)
		n.Protein = n.Protein.Add(ing.Protein)
		n.Carbs = n.Carbs.Add(ing.Carbs)
		n.Fat = n.Fat.Add(ing.Fat)
	}
	return n
}

func findModifier(mods []Modifier, name string) (*Modifier, bool) {
	for i := range mods {
		if mods[i].Name == name {
			return &mods[i], true
		}
	}
	return nil, false
}

// BundleItem is a display-only entry inside a bundle.
type BundleItem struct {
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Image   string          `json:"image,omitempty"`
	Kitchen string          `json:"kitchen"`
}

// BundleOffer is a standalone multi-item deal. Only its quantity can change
// once it is in a cart.
type BundleOffer struct {
	Name       string          `json:"name"`
	Image      string          `json:"image,omitempty"`
	Items      []BundleItem    `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Offer      *Offer          `json:"offer,omitempty"`
}

// Catalog is a full menu snapshot, as loaded from a file or seeded into Postgres.
type Catalog struct {
	Items   []MenuItem    `json:"items"`
	Bundles []BundleOffer `json:"bundles"`
}
