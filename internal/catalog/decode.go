package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/restopos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// DefaultSpicySurcharge applies when a spicy-enabled entity omits its spicy price.
var DefaultSpicySurcharge = decimal.NewFromInt(30)

// Raw wire shapes. Prices arrive as numbers or numeric strings and may be
// missing or garbage; capability blocks may be absent.

type rawOffer struct {
	Price     json.RawMessage `json:"price"`
	StartTime string          `json:"start_time"`
	EndTime   string          `json:"end_time"`
}

type rawSize struct {
	Enabled bool            `json:"enabled"`
	Small   json.RawMessage `json:"small"`
	Medium  json.RawMessage `json:"medium"`
	Large   json.RawMessage `json:"large"`
}

type rawCold struct {
	Enabled  bool            `json:"enabled"`
	IcePrice json.RawMessage `json:"ice_price"`
}

type rawSpicy struct {
	Enabled       bool            `json:"enabled"`
	SpicyPrice    json.RawMessage `json:"spicy_price"`
	NonSpicyPrice json.RawMessage `json:"non_spicy_price"`
}

type rawSugar struct {
	Enabled      bool   `json:"enabled"`
	DefaultLevel string `json:"default_level"`
}

type rawSubheading struct {
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`
	Image string          `json:"image"`
}

type rawGroup struct {
	Heading     string          `json:"heading"`
	Enabled     *bool           `json:"enabled"`
	Subheadings []rawSubheading `json:"subheadings"`
}

type rawCapabilities struct {
	Size  *rawSize  `json:"size"`
	Cold  *rawCold  `json:"cold"`
	Spicy *rawSpicy `json:"spicy"`
	Sugar *rawSugar `json:"sugar"`
}

type rawModifier struct {
	rawCapabilities
	Name           string          `json:"name"`
	Price          json.RawMessage `json:"price"`
	Image          string          `json:"image"`
	Kitchen        string          `json:"kitchen"`
	CustomVariants []rawGroup      `json:"custom_variants"`
}

type rawIngredient struct {
	Name     string          `json:"name"`
	Calories json.RawMessage `json:"calories"`
	Protein  json.RawMessage `json:"protein"`
	Carbs    json.RawMessage `json:"carbs"`
	Fat      json.RawMessage `json:"fat"`
}

type rawItem struct {
	rawCapabilities
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Image          string          `json:"image"`
	Kitchen        string          `json:"kitchen"`
	Price          json.RawMessage `json:"price"`
	Offer          *rawOffer       `json:"offer"`
	CustomVariants []rawGroup      `json:"custom_variants"`
	Addons         []rawModifier   `json:"addons"`
	Combos         []rawModifier   `json:"combos"`
	Ingredients    []rawIngredient `json:"ingredients"`
}

type rawBundleItem struct {
	Name    string          `json:"name"`
	Price   json.RawMessage `json:"price"`
	Image   string          `json:"image"`
	Kitchen string          `json:"kitchen"`
}

type rawBundle struct {
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	Items      []rawBundleItem `json:"items"`
	TotalPrice json.RawMessage `json:"total_price"`
	Offer      *rawOffer       `json:"offer"`
}

type rawCatalog struct {
	Items   []json.RawMessage `json:"items"`
	Bundles []json.RawMessage `json:"bundles"`
}

// DecodeItem parses one raw menu item. Only an unreadable document or a
// missing name is an error; malformed numbers become zero and are logged.
func DecodeItem(data []byte) (*MenuItem, error) {
	var raw rawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrInvalidEntry)
	}

	entity := raw.Name
	item := &MenuItem{
		Name:           raw.Name,
		Category:       raw.Category,
		Image:          raw.Image,
		Kitchen:        kitchenOrDefault(raw.Kitchen),
		BasePrice:      parseAmount(raw.Price, entity, "price"),
		Offer:          decodeOffer(raw.Offer, entity),
		Capabilities:   decodeCapabilities(raw.rawCapabilities, entity),
		CustomVariants: decodeGroups(raw.CustomVariants, entity),
	}

	for _, ra := range raw.Addons {
		item.Addons = append(item.Addons, decodeModifier(ra, item.Kitchen, entity+"/addon"))
	}
	for _, rc := range raw.Combos {
		item.Combos = append(item.Combos, decodeModifier(rc, item.Kitchen, entity+"/combo"))
	}
	for _, ri := range raw.Ingredients {
		field := "ingredient " + ri.Name
		item.Ingredients = append(item.Ingredients, Ingredient{
			Name:     ri.Name,
			Calories: parseAmount(ri.Calories, entity, field+".calories"),
			Protein:  parseAmount(ri.Protein, entity, field+".protein"),
			Carbs:    parseAmount(ri.Carbs, entity, field+".carbs"),
			Fat:      parseAmount(ri.Fat, entity, field+".fat"),
		})
	}

	return item, nil
}

// DecodeBundle parses one raw bundle offer.
func DecodeBundle(data []byte) (*BundleOffer, error) {
	var raw rawBundle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("%w: bundle name is required", ErrInvalidEntry)
	}

	b := &BundleOffer{
		Name:       raw.Name,
		Image:      raw.Image,
		TotalPrice: parseAmount(raw.TotalPrice, raw.Name, "total_price"),
		Offer:      decodeOffer(raw.Offer, raw.Name),
	}
	for _, ri := range raw.Items {
		b.Items = append(b.Items, BundleItem{
			Name:    ri.Name,
			Price:   parseAmount(ri.Price, raw.Name, "item "+ri.Name),
			Image:   ri.Image,
			Kitchen: kitchenOrDefault(ri.Kitchen),
		})
	}
	return b, nil
}

// DecodeCatalog parses a full catalog document ({"items": [...], "bundles": [...]}).
// Entries that cannot be decoded are skipped and logged.
func DecodeCatalog(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{}
	for i, ri := range raw.Items {
		item, err := DecodeItem(ri)
		if err != nil {
			log.Printf("WARN: catalog items[%d] skipped: %v", i, err)
			continue
		}
		c.Items = append(c.Items, *item)
	}
	for i, rb := range raw.Bundles {
		b, err := DecodeBundle(rb)
		if err != nil {
			log.Printf("WARN: catalog bundles[%d] skipped: %v", i, err)
			continue
		}
		c.Bundles = append(c.Bundles, *b)
	}
	return c, nil
}

func decodeModifier(raw rawModifier, parentKitchen, scope string) Modifier {
	entity := scope + " " + raw.Name
	kitchen := raw.Kitchen
	if kitchen == "" {
		kitchen = parentKitchen
	}
	return Modifier{
		Name:           raw.Name,
		Price:          parseAmount(raw.Price, entity, "price"),
		Image:          raw.Image,
		Kitchen:        kitchen,
		Capabilities:   decodeCapabilities(raw.rawCapabilities, entity),
		CustomVariants: decodeGroups(raw.CustomVariants, entity),
	}
}

func decodeCapabilities(raw rawCapabilities, entity string) Capabilities {
	caps := Capabilities{}

	if raw.Size != nil && raw.Size.Enabled {
		caps.Size = SizeCapability{
			Enabled: true,
			Small:   parseAmount(raw.Size.Small, entity, "size.small"),
			Medium:  parseAmount(raw.Size.Medium, entity, "size.medium"),
			Large:   parseAmount(raw.Size.Large, entity, "size.large"),
		}
	}

	if raw.Cold != nil && raw.Cold.Enabled {
		caps.Cold = ColdCapability{
			Enabled:  true,
			IcePrice: parseAmount(raw.Cold.IcePrice, entity, "cold.ice_price"),
		}
	}

	if raw.Spicy != nil && raw.Spicy.Enabled {
		spicy := DefaultSpicySurcharge
		if isPresent(raw.Spicy.SpicyPrice) {
			spicy = parseAmount(raw.Spicy.SpicyPrice, entity, "spicy.spicy_price")
		}
		caps.Spicy = SpicyCapability{
			Enabled:       true,
			SpicyPrice:    spicy,
			NonSpicyPrice: parseAmount(raw.Spicy.NonSpicyPrice, entity, "spicy.non_spicy_price"),
		}
	}

	if raw.Sugar != nil && raw.Sugar.Enabled {
		level := strings.ToUpper(raw.Sugar.DefaultLevel)
		if !enum.IsSugar(level) {
			level = enum.SugarMedium
		}
		caps.Sugar = SugarCapability{Enabled: true, DefaultLevel: level}
	}

	return caps
}

func decodeGroups(raw []rawGroup, entity string) []VariantGroup {
	groups := make([]VariantGroup, 0, len(raw))
	for _, rg := range raw {
		enabled := true
		if rg.Enabled != nil {
			enabled = *rg.Enabled
		}
		g := VariantGroup{Heading: rg.Heading, Enabled: enabled}
		for _, rs := range rg.Subheadings {
			g.Subheadings = append(g.Subheadings, Subheading{
				Name:  rs.Name,
				Price: parseAmount(rs.Price, entity, rg.Heading+"."+rs.Name),
				Image: rs.Image,
			})
		}
		groups = append(groups, g)
	}
	return groups
}

func decodeOffer(raw *rawOffer, entity string) *Offer {
	if raw == nil {
		return nil
	}
	start, err := time.Parse(time.RFC3339, raw.StartTime)
	if err != nil {
		log.Printf("WARN: %s: offer start_time %q unreadable, offer ignored", entity, raw.StartTime)
		return nil
	}
	end, err := time.Parse(time.RFC3339, raw.EndTime)
	if err != nil {
		log.Printf("WARN: %s: offer end_time %q unreadable, offer ignored", entity, raw.EndTime)
		return nil
	}
	return &Offer{
		Price:     parseAmount(raw.Price, entity, "offer.price"),
		StartTime: start,
		EndTime:   end,
	}
}

// parseAmount reads a number or numeric string. Missing values are zero;
// malformed or negative values are zero and logged.
func parseAmount(raw json.RawMessage, entity, field string) decimal.Decimal {
	if !isPresent(raw) {
		return decimal.Zero
	}

	s := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			log.Printf("WARN: %s: %s malformed (%s), using 0", entity, field, s)
			return decimal.Zero
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return decimal.Zero
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Printf("WARN: %s: %s malformed (%s), using 0", entity, field, s)
		return decimal.Zero
	}
	if d.IsNegative() {
		log.Printf("WARN: %s: %s negative (%s), using 0", entity, field, s)
		return decimal.Zero
	}
	return d
}

func isPresent(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) > 0 && !bytes.Equal(s, []byte("null"))
}

func kitchenOrDefault(k string) string {
	if k == "" {
		return enum.KitchenDefault
	}
	return k
}
