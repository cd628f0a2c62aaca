// Package bscscan queries the BscScan explorer API for token balances.
package bscscan

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"pricebot/pkg/market"
)

const (
	defaultBaseURL     = "https://api.bscscan.com/api"
	defaultTimeout     = 10 * time.Second
	defaultHTTPTimeout = 10 * time.Second
	defaultScaleExp    = 21
	amountPlaces       = 4
)

// Client reads the balance a burn address holds for a token contract.
type Client struct {
	baseURL     string
	apiKey      string
	contract    string
	burnAddress string
	scaleExp    int32
	httpClient  *http.Client
	timeout     time.Duration
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

// WithBaseURL overrides the explorer API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithAPIKey sets the explorer API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithScaleExp sets the power of ten dividing raw balances into display units.
func WithScaleExp(exp int32) Option {
	return func(c *Client) {
		if exp >= 0 {
			c.scaleExp = exp
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

// NewClient constructs a balance client for contract held by burnAddress.
func NewClient(contract, burnAddress string, opts ...Option) *Client {
	client := &Client{
		baseURL:     defaultBaseURL,
		contract:    contract,
		burnAddress: burnAddress,
		scaleExp:    defaultScaleExp,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type balanceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// FetchBurnedSupply returns the burn address balance, raw and rescaled.
func (c *Client) FetchBurnedSupply(ctx context.Context) market.Result[market.BurnRecord] {
	return market.Fetch(ctx, market.SourceBscScan, c.fetchBalance)
}

func (c *Client) fetchBalance(ctx context.Context) (market.BurnRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint, err := c.balanceURL()
	if err != nil {
		return market.BurnRecord{}, market.NewFetchError(market.SourceBscScan, market.KindNetwork, err)
	}

	var payload balanceResponse
	if ferr := market.GetJSON(ctx, c.httpClient, market.SourceBscScan, endpoint, nil, &payload); ferr != nil {
		return market.BurnRecord{}, ferr
	}

	raw, ferr := parseBalance(payload)
	if ferr != nil {
		return market.BurnRecord{}, ferr
	}
	rec := market.BurnRecord{
		Raw:    raw,
		Amount: raw.Shift(-c.scaleExp).Round(amountPlaces),
	}
	logx.WithContext(ctx).Debugf("bscscan: burn balance raw=%s amount=%s", rec.Raw, rec.Amount)
	return rec, nil
}

func (c *Client) balanceURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("module", "account")
	q.Set("action", "tokenbalance")
	q.Set("contractaddress", c.contract)
	q.Set("address", c.burnAddress)
	q.Set("tag", "latest")
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseBalance accepts only a non-negative base-10 integer in result. The
// explorer reports errors with status "0" and a message in result.
func parseBalance(payload balanceResponse) (decimal.Decimal, *market.FetchError) {
	result := strings.TrimSpace(payload.Result)
	if result == "" {
		return decimal.Zero, market.FieldError(market.SourceBscScan, "result: %w", market.ErrFieldMissing)
	}
	for _, r := range result {
		if r < '0' || r > '9' {
			if payload.Status == "0" {
				return decimal.Zero, market.FieldError(market.SourceBscScan, "explorer error %q: %s", payload.Message, result)
			}
			return decimal.Zero, market.FieldError(market.SourceBscScan, "result %q is not an integer balance", result)
		}
	}
	raw, err := decimal.NewFromString(result)
	if err != nil {
		return decimal.Zero, market.FieldError(market.SourceBscScan, "result %q: %v", result, err)
	}
	return raw, nil
}
