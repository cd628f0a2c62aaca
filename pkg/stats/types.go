package stats

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pricebot/pkg/market"
)

// PriceDecimals is the number of fractional digits in PriceQuote.Text.
const PriceDecimals = 9

// metricPlaces is the rounding applied to burned supply, market cap and
// percent changes.
const metricPlaces = 4

// PriceQuote is the tracked token's spot price.
type PriceQuote struct {
	Value decimal.Decimal
	Text  string // Value with exactly PriceDecimals fractional digits
}

// MarketSnapshot is one consistent cycle of derived metrics. It is only ever
// produced complete; any missing input fails the whole computation.
type MarketSnapshot struct {
	Contract    string
	Symbol      string
	Price       PriceQuote
	TotalSupply decimal.Decimal // display units ("T")
	Burned      decimal.Decimal // display units, 4 dp
	Circulating decimal.Decimal // TotalSupply - Burned
	MarketCap   decimal.Decimal // Circulating * unit scale * price, 4 dp
	Change1h    decimal.Decimal
	Change24h   decimal.Decimal
	Change7d    decimal.Decimal
	Volume24h   decimal.Decimal // informational; not rendered
	CapturedAt  time.Time
}

// AggregationError reports that a snapshot could not be built because one or
// more upstream fetches failed.
type AggregationError struct {
	Causes []*market.FetchError
}

func (e *AggregationError) Error() string {
	if e == nil || len(e.Causes) == 0 {
		return "aggregate snapshot: no usable upstream data"
	}
	parts := make([]string, 0, len(e.Causes))
	for _, c := range e.Causes {
		parts = append(parts, c.Error())
	}
	return "aggregate snapshot: " + strings.Join(parts, "; ")
}

// Unwrap exposes every cause to errors.Is and errors.As.
func (e *AggregationError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, len(e.Causes))
	for _, c := range e.Causes {
		errs = append(errs, c)
	}
	return errs
}

// Sources lists the upstream names that failed.
func (e *AggregationError) Sources() []string {
	var out []string
	for _, c := range e.Causes {
		out = append(out, c.Source)
	}
	return out
}

// IsAggregation reports whether err is (or wraps) an AggregationError.
func IsAggregation(err error) bool {
	var aerr *AggregationError
	return errors.As(err, &aerr)
}
