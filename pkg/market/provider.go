package market

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PriceIndex is the spot-price index payload keyed by contract address.
type PriceIndex struct {
	UpdatedAt int64                 // Upstream update time in milliseconds
	Tokens    map[string]TokenPrice // Keyed by contract address as returned upstream
}

// TokenPrice holds the metadata listed for one contract in the price index.
type TokenPrice struct {
	Name     string
	Symbol   string
	Price    string // Fiat price, string-encoded as served upstream
	PriceBNB string
}

// Lookup finds a token entry by contract address. Index keys use checksum
// casing, so a checksummed address is a direct hit; other casings fall back
// to a case-insensitive scan.
func (p PriceIndex) Lookup(contract string) (TokenPrice, bool) {
	if tp, ok := p.Tokens[contract]; ok {
		return tp, true
	}
	if common.IsHexAddress(contract) {
		if tp, ok := p.Tokens[common.HexToAddress(contract).Hex()]; ok {
			return tp, true
		}
	}
	for addr, tp := range p.Tokens {
		if strings.EqualFold(addr, contract) {
			return tp, true
		}
	}
	return TokenPrice{}, false
}

// BurnRecord is the balance held by the burn address.
type BurnRecord struct {
	Raw    decimal.Decimal // Balance in base units
	Amount decimal.Decimal // Raw rescaled to display units, 4 decimals
}

// WidgetQuote is the USD quote served by the aggregator widget endpoint.
type WidgetQuote struct {
	ID               int
	Name             string
	Symbol           string
	Price            float64
	PercentChange1h  float64
	PercentChange24h float64
	PercentChange7d  float64
	Volume24h        float64 // Optional upstream; zero when absent
	MarketCap        float64 // Optional upstream; zero when absent
}
