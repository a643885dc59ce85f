// Package swap implements the pure swap rate calculator.
//
// Quote has no side effects and no network access: it maps (sell asset,
// buy asset, sell quantity text) to an estimated buy quantity and exchange
// rate using the static price table. It is recomputed synchronously on
// every input change; results are never cached or stored.
package swap

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cryptodesk/backend/internal/domain/assets"
	"github.com/cryptodesk/backend/internal/shared/types"
)

// zeroAmount is what an absent or invalid quantity renders as
const zeroAmount = "0.00"

// Quote computes a swap estimate. The sell quantity is free text from an
// input field: empty, non-numeric, or negative values yield a zero buy
// quantity while the rate is still derived from the asset pair. A quantity
// of zero is a valid input and renders as "0.000000".
func Quote(table *assets.Table, sellSym, buySym, sellQtyText string) (types.SwapQuote, error) {
	sell, ok := table.Lookup(sellSym)
	if !ok {
		return types.SwapQuote{}, fmt.Errorf("%w: %s", types.ErrUnknownAsset, sellSym)
	}
	buy, ok := table.Lookup(buySym)
	if !ok {
		return types.SwapQuote{}, fmt.Errorf("%w: %s", types.ErrUnknownAsset, buySym)
	}

	rate := sell.UnitPriceUSD.Div(buy.UnitPriceUSD)

	q := types.SwapQuote{
		SellSymbol:  sellSym,
		BuySymbol:   buySym,
		SellQty:     sellQtyText,
		Rate:        rate.StringFixed(4),
		RateDisplay: fmt.Sprintf("1 %s ≈ %s %s", sellSym, rate.StringFixed(4), buySym),
	}

	qty, valid := parseQty(sellQtyText)
	if !valid {
		q.BuyQty = zeroAmount
		q.ValueUSD = decimal.Zero.StringFixed(2)
		return q, nil
	}

	// buyQty = qty * price(sell) / price(buy)
	q.BuyQty = qty.Mul(sell.UnitPriceUSD).Div(buy.UnitPriceUSD).StringFixed(6)
	q.ValueUSD = qty.Mul(sell.UnitPriceUSD).StringFixed(2)
	return q, nil
}

// ValidQty reports whether text parses to a positive quantity. Zero quotes
// fine but is not enough to execute a swap.
func ValidQty(text string) bool {
	d, ok := parseQty(text)
	return ok && d.IsPositive()
}

func parseQty(text string) (decimal.Decimal, bool) {
	if text == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}
