// Package stats derives the tracked token's price and market metrics from the
// upstream sources.
package stats

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"

	"pricebot/pkg/market"
)

// Aggregator combines the three upstream sources into prices and snapshots.
// It keeps no state between calls.
type Aggregator struct {
	token  market.TokenConfig
	price  market.PriceSource
	burn   market.BurnSource
	widget market.WidgetSource
	now    func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the capture clock.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// New builds an Aggregator for token over the given sources.
func New(token market.TokenConfig, price market.PriceSource, burn market.BurnSource, widget market.WidgetSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		token:  token,
		price:  price,
		burn:   burn,
		widget: widget,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Token returns the tracked token configuration.
func (a *Aggregator) Token() market.TokenConfig { return a.token }

// ComputePrice fetches the spot index and extracts the tracked contract's price.
func (a *Aggregator) ComputePrice(ctx context.Context) market.Result[PriceQuote] {
	res := a.price.FetchSpotPrice(ctx)
	if !res.Ok() {
		return market.Fail[PriceQuote](res.Err())
	}
	quote, _, ferr := a.quoteFromIndex(res.Value())
	if ferr != nil {
		logx.WithContext(ctx).Errorf("stats: compute price: %v", ferr)
		return market.Fail[PriceQuote](ferr)
	}
	return market.Ok(quote)
}

func (a *Aggregator) quoteFromIndex(index market.PriceIndex) (PriceQuote, market.TokenPrice, *market.FetchError) {
	tp, ok := index.Lookup(a.token.Contract)
	if !ok {
		return PriceQuote{}, tp, market.FieldError(market.SourcePancakeSwap, "price for %s: %w", a.token.Contract, market.ErrFieldMissing)
	}
	quote, err := ParsePrice(tp.Price)
	if err != nil {
		return PriceQuote{}, tp, market.FieldError(market.SourcePancakeSwap, "price for %s: %v", a.token.Contract, err)
	}
	return quote, tp, nil
}

// ComputeSnapshot fetches all three sources concurrently and derives the
// market metrics. If any fetch fails the result is an *AggregationError and no
// snapshot is returned.
func (a *Aggregator) ComputeSnapshot(ctx context.Context) (MarketSnapshot, error) {
	var (
		priceRes  market.Result[market.PriceIndex]
		burnRes   market.Result[market.BurnRecord]
		widgetRes market.Result[market.WidgetQuote]
	)
	// The goroutines never return errors; each failure travels in its Result
	// so that all three complete and every cause is reported.
	var g errgroup.Group
	g.Go(func() error {
		priceRes = a.price.FetchSpotPrice(ctx)
		return nil
	})
	g.Go(func() error {
		burnRes = a.burn.FetchBurnedSupply(ctx)
		return nil
	})
	g.Go(func() error {
		widgetRes = a.widget.FetchWidget(ctx)
		return nil
	})
	_ = g.Wait()

	var causes []*market.FetchError
	var (
		quote PriceQuote
		tp    market.TokenPrice
	)
	if priceRes.Ok() {
		var ferr *market.FetchError
		if quote, tp, ferr = a.quoteFromIndex(priceRes.Value()); ferr != nil {
			causes = append(causes, ferr)
		}
	} else {
		causes = append(causes, priceRes.Err())
	}
	if !burnRes.Ok() {
		causes = append(causes, burnRes.Err())
	}
	if !widgetRes.Ok() {
		causes = append(causes, widgetRes.Err())
	}
	if len(causes) > 0 {
		err := &AggregationError{Causes: causes}
		logx.WithContext(ctx).Errorf("stats: %v", err)
		return MarketSnapshot{}, err
	}

	snap := a.derive(quote, burnRes.Value(), widgetRes.Value())
	if snap.Symbol == "" {
		snap.Symbol = tp.Symbol
	}
	return snap, nil
}

func (a *Aggregator) derive(quote PriceQuote, burn market.BurnRecord, widget market.WidgetQuote) MarketSnapshot {
	total := decimal.NewFromInt(a.token.TotalSupply)
	burned := BurnedSupply(burn.Raw, a.token.BurnScaleExp)
	circulating := total.Sub(burned)
	return MarketSnapshot{
		Contract:    a.token.Contract,
		Symbol:      widget.Symbol,
		Price:       quote,
		TotalSupply: total,
		Burned:      burned,
		Circulating: circulating,
		MarketCap:   MarketCap(circulating, a.token.UnitScale, quote.Value),
		Change1h:    roundChange(widget.PercentChange1h),
		Change24h:   roundChange(widget.PercentChange24h),
		Change7d:    roundChange(widget.PercentChange7d),
		Volume24h:   decimal.NewFromFloat(widget.Volume24h),
		CapturedAt:  a.now(),
	}
}

func roundChange(pct float64) decimal.Decimal {
	return decimal.NewFromFloat(pct).Round(metricPlaces)
}
