package types

import "time"

// MarketAsset is one entry from the price collaborator, ordered by market cap
type MarketAsset struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
}

// MarketSnapshot holds the most recently fetched prices. A snapshot is held
// until superseded; a failed fetch never clears it.
type MarketSnapshot struct {
	Assets    []MarketAsset `json:"assets"`
	FetchedAt time.Time     `json:"fetched_at"`
}
