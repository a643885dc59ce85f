// Package assets holds the immutable asset table and chain configuration.
//
// The table is constructed once at startup — from the built-in test-network
// defaults or a YAML file — and passed explicitly into the components that
// need it, so tests can substitute alternate asset sets.
package assets

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"

	"github.com/cryptodesk/backend/internal/shared/types"
)

// Table is an immutable symbol-indexed asset set for one chain context
type Table struct {
	chain types.ChainConfig
	list  []types.AssetDescriptor
	index map[string]types.AssetDescriptor
}

// New validates the descriptor set and builds a table. Invariants: unique
// symbols, positive prices, exactly one native asset, and a well-formed
// contract address present iff the asset is not native. Address validation
// here keeps malformed addresses out of the signing path entirely.
func New(chain types.ChainConfig, descriptors []types.AssetDescriptor) (*Table, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("asset table cannot be empty")
	}

	index := make(map[string]types.AssetDescriptor, len(descriptors))
	natives := 0
	for _, d := range descriptors {
		if d.Symbol == "" {
			return nil, fmt.Errorf("asset with empty symbol")
		}
		if _, dup := index[d.Symbol]; dup {
			return nil, fmt.Errorf("duplicate asset symbol: %s", d.Symbol)
		}
		if !d.UnitPriceUSD.IsPositive() {
			return nil, fmt.Errorf("asset %s: price must be positive", d.Symbol)
		}
		if d.IsNative {
			natives++
			if d.ContractAddress != "" {
				return nil, fmt.Errorf("native asset %s cannot have a contract address", d.Symbol)
			}
		} else if d.ContractAddress == "" {
			return nil, fmt.Errorf("asset %s: contract address required", d.Symbol)
		} else if !common.IsHexAddress(d.ContractAddress) {
			return nil, fmt.Errorf("asset %s: malformed contract address %q", d.Symbol, d.ContractAddress)
		}
		index[d.Symbol] = d
	}
	if natives != 1 {
		return nil, fmt.Errorf("exactly one native asset required, got %d", natives)
	}

	list := make([]types.AssetDescriptor, len(descriptors))
	copy(list, descriptors)

	return &Table{chain: chain, list: list, index: index}, nil
}

// Default returns the built-in test-network table
func Default() *Table {
	t, err := New(defaultChain(), defaultAssets())
	if err != nil {
		// The built-in table is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return t
}

// Lookup returns the descriptor for symbol
func (t *Table) Lookup(symbol string) (types.AssetDescriptor, bool) {
	d, ok := t.index[symbol]
	return d, ok
}

// Native returns the chain's native asset
func (t *Table) Native() types.AssetDescriptor {
	for _, d := range t.list {
		if d.IsNative {
			return d
		}
	}
	return types.AssetDescriptor{} // unreachable for a validated table
}

// Symbols returns all symbols in table order
func (t *Table) Symbols() []string {
	out := make([]string, len(t.list))
	for i, d := range t.list {
		out[i] = d.Symbol
	}
	return out
}

// List returns a copy of all descriptors in table order
func (t *Table) List() []types.AssetDescriptor {
	out := make([]types.AssetDescriptor, len(t.list))
	copy(out, t.list)
	return out
}

// Chain returns the chain configuration
func (t *Table) Chain() types.ChainConfig {
	return t.chain
}

// fileFormat is the YAML representation. Prices travel as strings to keep
// exact decimal values.
type fileFormat struct {
	Chain  types.ChainConfig `yaml:"chain"`
	Assets []struct {
		Symbol          string `yaml:"symbol"`
		ContractAddress string `yaml:"contract_address"`
		IsNative        bool   `yaml:"is_native"`
		UnitPriceUSD    string `yaml:"unit_price_usd"`
	} `yaml:"assets"`
}

// LoadFile reads an asset table from a YAML file
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset config: %w", err)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse asset config: %w", err)
	}

	descriptors := make([]types.AssetDescriptor, 0, len(ff.Assets))
	for _, a := range ff.Assets {
		price, err := decimal.NewFromString(a.UnitPriceUSD)
		if err != nil {
			return nil, fmt.Errorf("asset %s: bad price %q: %w", a.Symbol, a.UnitPriceUSD, err)
		}
		descriptors = append(descriptors, types.AssetDescriptor{
			Symbol:          a.Symbol,
			ContractAddress: a.ContractAddress,
			IsNative:        a.IsNative,
			UnitPriceUSD:    price,
		})
	}

	return New(ff.Chain, descriptors)
}

func defaultChain() types.ChainConfig {
	return types.ChainConfig{
		ID:       267,
		Name:     "Neura Testnet",
		Currency: "ANKR",
		Decimals: 18,
		RPCURL:   "https://rpc.ankr.com/neura_testnet",
	}
}

func defaultAssets() []types.AssetDescriptor {
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return []types.AssetDescriptor{
		{Symbol: "ANKR", IsNative: true, UnitPriceUSD: price("0.05")},
		{Symbol: "SOL", ContractAddress: "0xaFafC2942bA7f1C47a9E453ea1a55be3C5a55652", UnitPriceUSD: price("100.00")},
		{Symbol: "POL", ContractAddress: "0x5Ac7435DC9Ca69C85Bfc09187D2D9BdC5cDEf711", UnitPriceUSD: price("0.50")},
		{Symbol: "SUI", ContractAddress: "0x6a283F60975099f2B361607Faf8CF7a683e3F4e6", UnitPriceUSD: price("1.20")},
		{Symbol: "ztUSD", ContractAddress: "0x9423c6C914857e6DaAACe3b585f4640231505128", UnitPriceUSD: price("1.00")},
		{Symbol: "WANKR", ContractAddress: "0x422F5Eae5fEE0227FB31F149E690a73C4aD02dB0", UnitPriceUSD: price("0.05")},
	}
}
