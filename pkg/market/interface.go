package market

import "context"

// PriceSource serves the spot-price index.
type PriceSource interface {
	FetchSpotPrice(ctx context.Context) Result[PriceIndex]
}

// BurnSource serves the burned supply held by the burn address.
type BurnSource interface {
	FetchBurnedSupply(ctx context.Context) Result[BurnRecord]
}

// WidgetSource serves the aggregator quote with percentage changes.
type WidgetSource interface {
	FetchWidget(ctx context.Context) Result[WidgetQuote]
}
