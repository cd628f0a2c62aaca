// Package sources builds the upstream market clients from configuration.
package sources

import (
	"net/http"

	"pricebot/pkg/market"
	"pricebot/pkg/market/sources/bscscan"
	"pricebot/pkg/market/sources/coinmarketcap"
	"pricebot/pkg/market/sources/pancakeswap"
)

// Set groups the three upstream clients the aggregator reads from.
type Set struct {
	Price  market.PriceSource
	Burn   market.BurnSource
	Widget market.WidgetSource
}

// Build constructs every configured client. Zero timeouts and empty base URLs
// fall back to each client's defaults.
func Build(cfg *market.Config) Set {
	pcs := cfg.Source(market.SourcePancakeSwap)
	bsc := cfg.Source(market.SourceBscScan)
	cmc := cfg.Source(market.SourceCoinMarketCap)

	return Set{
		Price: pancakeswap.NewClient(
			pancakeswap.WithBaseURL(pcs.BaseURL),
			pancakeswap.WithTimeout(pcs.Timeout),
			pancakeswap.WithHTTPClient(httpClient(pcs)),
		),
		Burn: bscscan.NewClient(cfg.Token.Contract, cfg.Token.BurnAddress,
			bscscan.WithBaseURL(bsc.BaseURL),
			bscscan.WithAPIKey(bsc.APIKey),
			bscscan.WithScaleExp(cfg.Token.BurnScaleExp),
			bscscan.WithTimeout(bsc.Timeout),
			bscscan.WithHTTPClient(httpClient(bsc)),
		),
		Widget: coinmarketcap.NewClient(cfg.Token.CMCID,
			coinmarketcap.WithBaseURL(cmc.BaseURL),
			coinmarketcap.WithTimeout(cmc.Timeout),
			coinmarketcap.WithHTTPClient(httpClient(cmc)),
		),
	}
}

func httpClient(s *market.SourceConfig) *http.Client {
	if s.HTTPTimeout <= 0 {
		return nil
	}
	return &http.Client{Timeout: s.HTTPTimeout}
}
