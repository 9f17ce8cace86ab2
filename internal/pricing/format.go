package pricing

import "github.com/shopspring/decimal"

// Format rounds an amount to two decimals for display, receipts and
// payloads. Nothing inside the engine rounds.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatMap formats every amount of a per-name price map.
func FormatMap(m map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = Format(v)
	}
	return out
}
