// Package coinmarketcap reads the CoinMarketCap widget endpoint for USD
// quotes and percentage changes.
package coinmarketcap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"github.com/zeromicro/go-zero/core/logx"

	"pricebot/pkg/market"
)

const (
	defaultBaseURL     = "https://3rdparty-apis.coinmarketcap.com/v1/cryptocurrency/widget"
	defaultTimeout     = 10 * time.Second
	defaultHTTPTimeout = 10 * time.Second
)

// Client fetches the widget quote for one asset id.
type Client struct {
	baseURL    string
	assetID    int
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

// WithBaseURL overrides the widget endpoint.
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

// NewClient constructs a widget client for assetID.
func NewClient(assetID int, opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		assetID:    assetID,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FetchWidget returns the USD quote for the configured asset id.
func (c *Client) FetchWidget(ctx context.Context) market.Result[market.WidgetQuote] {
	return market.Fetch(ctx, market.SourceCoinMarketCap, c.fetchQuote)
}

func (c *Client) fetchQuote(ctx context.Context) (market.WidgetQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint, err := c.widgetURL()
	if err != nil {
		return market.WidgetQuote{}, market.NewFetchError(market.SourceCoinMarketCap, market.KindNetwork, err)
	}

	var body json.RawMessage
	if ferr := market.GetJSON(ctx, c.httpClient, market.SourceCoinMarketCap, endpoint, nil, &body); ferr != nil {
		return market.WidgetQuote{}, ferr
	}

	quote, ferr := c.parseQuote(body)
	if ferr != nil {
		return market.WidgetQuote{}, ferr
	}
	logx.WithContext(ctx).Debugf("coinmarketcap: %s price=%g 1h=%g 24h=%g 7d=%g",
		quote.Symbol, quote.Price, quote.PercentChange1h, quote.PercentChange24h, quote.PercentChange7d)
	return quote, nil
}

func (c *Client) widgetURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("id", strconv.Itoa(c.assetID))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseQuote reads data.<id>.quote.USD. Price and the three percent changes
// are required; volume, market cap, name and symbol are optional.
func (c *Client) parseQuote(body []byte) (market.WidgetQuote, *market.FetchError) {
	entry := gjson.GetBytes(body, "data."+strconv.Itoa(c.assetID))
	if !entry.Exists() {
		return market.WidgetQuote{}, market.FieldError(market.SourceCoinMarketCap, "data.%d: %w", c.assetID, market.ErrFieldMissing)
	}
	usd := entry.Get("quote.USD")
	if !usd.IsObject() {
		return market.WidgetQuote{}, market.FieldError(market.SourceCoinMarketCap, "data.%d.quote.USD: %w", c.assetID, market.ErrFieldMissing)
	}

	quote := market.WidgetQuote{
		ID:        c.assetID,
		Name:      entry.Get("name").String(),
		Symbol:    entry.Get("symbol").String(),
		Volume24h: usd.Get("volume_24h").Float(),
		MarketCap: usd.Get("market_cap").Float(),
	}
	required := []struct {
		field string
		dst   *float64
	}{
		{"price", &quote.Price},
		{"percent_change_1h", &quote.PercentChange1h},
		{"percent_change_24h", &quote.PercentChange24h},
		{"percent_change_7d", &quote.PercentChange7d},
	}
	for _, r := range required {
		v := usd.Get(r.field)
		if !v.Exists() || v.Type == gjson.Null {
			return market.WidgetQuote{}, market.FieldError(market.SourceCoinMarketCap, "quote.USD.%s: %w", r.field, market.ErrFieldMissing)
		}
		if v.Type != gjson.Number {
			return market.WidgetQuote{}, market.FieldError(market.SourceCoinMarketCap, "quote.USD.%s: not a number: %s", r.field, v.Raw)
		}
		*r.dst = v.Float()
	}
	return quote, nil
}
