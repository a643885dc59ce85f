// Package wallet defines the wallet collaborator boundary.
//
// The core never handles private keys or raw signing: connection state and
// both signing operations (native value transfer, ERC20 contract call) are
// delegated through these interfaces. A Disconnected stub ships for boots
// without a wallet bridge; tests substitute mocks.
package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/cryptodesk/backend/internal/shared/types"
)

// Wallet exposes connection status and account state
type Wallet interface {
	Connected() bool
	Address() (common.Address, bool)
	NativeBalance(ctx context.Context) (*big.Int, error)
}

// Signer performs the two asynchronous signing operations. Each returns a
// transaction hash on success.
type Signer interface {
	SendNative(ctx context.Context, to common.Address, amountWei *big.Int) (string, error)
	TransferToken(ctx context.Context, token, to common.Address, amountWei *big.Int) (string, error)
}

// Bridge is a full wallet collaborator
type Bridge interface {
	Wallet
	Signer
}

// ParseAmount converts an amount input string to the chain's smallest unit.
// The text must parse to a positive decimal.
func ParseAmount(text string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(text)
	if err != nil || !d.IsPositive() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidAmount, text)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// ParseAddress validates and parses a recipient address
func ParseAddress(text string) (common.Address, error) {
	if !common.IsHexAddress(text) {
		return common.Address{}, fmt.Errorf("%w: %q", types.ErrInvalidRecipient, text)
	}
	return common.HexToAddress(text), nil
}

// Disconnected is the no-wallet stub: never connected, every signing call
// fails with ErrNotConnected.
type Disconnected struct{}

// NewDisconnected creates the stub collaborator
func NewDisconnected() *Disconnected {
	return &Disconnected{}
}

func (d *Disconnected) Connected() bool                 { return false }
func (d *Disconnected) Address() (common.Address, bool) { return common.Address{}, false }

func (d *Disconnected) NativeBalance(ctx context.Context) (*big.Int, error) {
	return nil, types.ErrNotConnected
}

func (d *Disconnected) SendNative(ctx context.Context, to common.Address, amountWei *big.Int) (string, error) {
	return "", types.ErrNotConnected
}

func (d *Disconnected) TransferToken(ctx context.Context, token, to common.Address, amountWei *big.Int) (string, error) {
	return "", types.ErrNotConnected
}
