// Package present renders market data into chat messages: the short price
// tick, the rich summary embed and the presence status line.
package present

import (
	"sync"

	"github.com/shopspring/decimal"

	"pricebot/pkg/stats"
)

// Default tick indicators are the server's custom up/down emoji.
const (
	DefaultUpIndicator   = "<:GreenSafu:828471113754869770>"
	DefaultDownIndicator = "<:RedSafu:828471096734908467>"
)

// Trend is the direction of a price tick.
type Trend int

const (
	TrendDown Trend = iota
	TrendUp
)

func (t Trend) String() string {
	if t == TrendUp {
		return "up"
	}
	return "down"
}

// Indicators maps a trend to the text prefixed to a price tick.
type Indicators struct {
	Up   string
	Down string
}

// DefaultIndicators returns the stock emoji indicators.
func DefaultIndicators() Indicators {
	return Indicators{Up: DefaultUpIndicator, Down: DefaultDownIndicator}
}

func (ind Indicators) withDefaults() Indicators {
	if ind.Up == "" {
		ind.Up = DefaultUpIndicator
	}
	if ind.Down == "" {
		ind.Down = DefaultDownIndicator
	}
	return ind
}

// ShortTick is the one-line price message.
type ShortTick struct {
	Trend     Trend
	Indicator string
	PriceText string
}

// Content is the message body sent to the channel.
func (t ShortTick) Content() string {
	return t.Indicator + " " + t.PriceText
}

// FormatShortTick compares current against previous. The trend is up only
// when previous is known and current is strictly greater; a tie or a missing
// previous price is down.
func (ind Indicators) FormatShortTick(current stats.PriceQuote, previous *decimal.Decimal) ShortTick {
	ind = ind.withDefaults()
	tick := ShortTick{Trend: TrendDown, Indicator: ind.Down, PriceText: current.Text}
	if previous != nil && current.Value.GreaterThan(*previous) {
		tick.Trend = TrendUp
		tick.Indicator = ind.Up
	}
	return tick
}

// FormatShortTick formats with the default indicators.
func FormatShortTick(current stats.PriceQuote, previous *decimal.Decimal) ShortTick {
	return DefaultIndicators().FormatShortTick(current, previous)
}

// PriceHistory remembers the last price a tick was rendered against. It is
// safe for concurrent use; Advance compares and stores under one lock so
// overlapping commands each see a distinct predecessor.
type PriceHistory struct {
	mu       sync.Mutex
	latest   *decimal.Decimal
	previous *decimal.Decimal
}

// Seed sets the latest price without producing a tick, e.g. after a restart.
func (h *PriceHistory) Seed(price decimal.Decimal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.previous, h.latest = h.latest, &price
}

// Latest returns the price the next tick will be compared against.
func (h *PriceHistory) Latest() (decimal.Decimal, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return decimal.Zero, false
	}
	return *h.latest, true
}

// Previous returns the price recorded before Latest.
func (h *PriceHistory) Previous() (decimal.Decimal, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.previous == nil {
		return decimal.Zero, false
	}
	return *h.previous, true
}

// Advance renders quote against the latest recorded price and then records
// quote as the new latest.
func (h *PriceHistory) Advance(quote stats.PriceQuote, ind Indicators) ShortTick {
	h.mu.Lock()
	defer h.mu.Unlock()
	tick := ind.FormatShortTick(quote, h.latest)
	price := quote.Value
	h.previous, h.latest = h.latest, &price
	return tick
}

// StatusText is the presence line shown under the bot's name.
func StatusText(quote stats.PriceQuote) string {
	return "Price: " + quote.Text
}
