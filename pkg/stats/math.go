package stats

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParsePrice parses an upstream price string into a quote rounded to
// PriceDecimals. The string must be a finite, non-negative decimal. Derived
// metrics use the rounded value, so they agree with the displayed price.
func ParsePrice(raw string) (PriceQuote, error) {
	if raw == "" {
		return PriceQuote{}, fmt.Errorf("empty price")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return PriceQuote{}, fmt.Errorf("parse price %q: %w", raw, err)
	}
	if v.IsNegative() {
		return PriceQuote{}, fmt.Errorf("negative price %q", raw)
	}
	v = v.Round(PriceDecimals)
	return PriceQuote{Value: v, Text: v.StringFixed(PriceDecimals)}, nil
}

// BurnedSupply rescales a base-unit balance by 10^exp and rounds to 4 places.
// Negative balances are clamped to zero.
func BurnedSupply(raw decimal.Decimal, exp int32) decimal.Decimal {
	if raw.IsNegative() {
		return decimal.Zero
	}
	return raw.Shift(-exp).Round(metricPlaces)
}

// MarketCap is circulating * unitScale * price, rounded to 4 places.
func MarketCap(circulating decimal.Decimal, unitScale int64, price decimal.Decimal) decimal.Decimal {
	return circulating.Mul(decimal.NewFromInt(unitScale)).Mul(price).Round(metricPlaces)
}
