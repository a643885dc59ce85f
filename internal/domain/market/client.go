package market

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/cryptodesk/backend/internal/infrastructure/resilience"
	"github.com/cryptodesk/backend/internal/shared/types"
)

// DefaultBaseURL is the public price collaborator (no authentication)
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client fetches market snapshots over HTTP with retry, rate limiting, and
// a circuit breaker in front of the external API.
type Client struct {
	resty    *resty.Client
	breaker  *resilience.Breaker
	limiter  *rate.Limiter
	currency string
}

// NewClient creates a production-ready price client
func NewClient(baseURL, currency string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if currency == "" {
		currency = "usd"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil // Disable logging

	restyClient := resty.New()
	restyClient.
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("User-Agent", "cryptodesk-terminal/1.0").
		SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New("price-feed", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			// Public price APIs flake; only trip on a sustained outage.
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		resty:    restyClient,
		breaker:  breaker,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 2),
		currency: currency,
	}
}

// marketRow mirrors the collaborator's per-asset payload; everything else
// in the response is ignored.
type marketRow struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
}

// TopAssets fetches the top-N assets by market capitalization
func (c *Client) TopAssets(ctx context.Context, limit int) ([]types.MarketAsset, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		var rows []marketRow
		resp, err := c.resty.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"vs_currency": c.currency,
				"order":       "market_cap_desc",
				"per_page":    fmt.Sprintf("%d", limit),
			}).
			SetResult(&rows).
			Get("/coins/markets")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("price api returned status %d", resp.StatusCode())
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFeedUnavailable, err)
	}

	rows := result.([]marketRow)
	assets := make([]types.MarketAsset, len(rows))
	for i, r := range rows {
		assets[i] = types.MarketAsset{Symbol: r.Symbol, CurrentPrice: r.CurrentPrice}
	}
	return assets, nil
}
