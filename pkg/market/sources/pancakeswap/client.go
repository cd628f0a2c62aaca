// Package pancakeswap reads the PancakeSwap token index for spot prices.
package pancakeswap

import (
	"context"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"pricebot/pkg/market"
)

const (
	defaultBaseURL     = "https://api.pancakeswap.info/api/tokens"
	defaultTimeout     = 10 * time.Second
	defaultHTTPTimeout = 10 * time.Second
)

// Client wraps access to the token index endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default token index URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient constructs a token index client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type tokensResponse struct {
	UpdatedAt int64                `json:"updated_at"`
	Data      map[string]tokenInfo `json:"data"`
}

type tokenInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Price    string `json:"price"`
	PriceBNB string `json:"price_BNB"`
}

// FetchSpotPrice downloads the token index. The payload is returned as served;
// price extraction for a specific contract is left to the caller.
func (c *Client) FetchSpotPrice(ctx context.Context) market.Result[market.PriceIndex] {
	return market.Fetch(ctx, market.SourcePancakeSwap, c.fetchIndex)
}

func (c *Client) fetchIndex(ctx context.Context) (market.PriceIndex, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload tokensResponse
	if ferr := market.GetJSON(ctx, c.httpClient, market.SourcePancakeSwap, c.baseURL, nil, &payload); ferr != nil {
		return market.PriceIndex{}, ferr
	}
	if payload.Data == nil {
		return market.PriceIndex{}, market.FieldError(market.SourcePancakeSwap, "data: %w", market.ErrFieldMissing)
	}

	index := market.PriceIndex{
		UpdatedAt: payload.UpdatedAt,
		Tokens:    make(map[string]market.TokenPrice, len(payload.Data)),
	}
	for addr, info := range payload.Data {
		index.Tokens[addr] = market.TokenPrice{
			Name:     info.Name,
			Symbol:   info.Symbol,
			Price:    info.Price,
			PriceBNB: info.PriceBNB,
		}
	}
	logx.WithContext(ctx).Debugf("pancakeswap: token index with %d entries, updated_at=%d", len(index.Tokens), index.UpdatedAt)
	return index, nil
}
