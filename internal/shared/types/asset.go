package types

import "github.com/shopspring/decimal"

// AssetDescriptor defines a transferable asset on the configured chain.
// The table is immutable after startup; exactly one entry per chain is
// native, and ContractAddress is empty iff IsNative.
type AssetDescriptor struct {
	Symbol          string          `json:"symbol" yaml:"symbol"`
	ContractAddress string          `json:"contract_address,omitempty" yaml:"contract_address,omitempty"`
	IsNative        bool            `json:"is_native" yaml:"is_native"`
	UnitPriceUSD    decimal.Decimal `json:"unit_price_usd" yaml:"unit_price_usd"`
}

// ChainConfig describes the fixed test network the terminal operates on
type ChainConfig struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Currency string `json:"currency" yaml:"currency"`
	Decimals int    `json:"decimals" yaml:"decimals"`
	RPCURL   string `json:"rpc_url" yaml:"rpc_url"`
}

// SwapQuote is a derived swap estimate. It is recomputed on every input
// change and never persisted.
type SwapQuote struct {
	SellSymbol  string `json:"sell_symbol"`
	BuySymbol   string `json:"buy_symbol"`
	SellQty     string `json:"sell_qty"`
	BuyQty      string `json:"buy_qty"`      // 6 decimal places, "0.00" when input is invalid
	Rate        string `json:"rate"`         // price(sell)/price(buy), 4 decimal places
	RateDisplay string `json:"rate_display"` // e.g. "1 ANKR ≈ 0.0500 ztUSD"
	ValueUSD    string `json:"value_usd"`    // sellQty * price(sell), 2 decimal places
}
