// Package transfer orchestrates native and ERC20 transfer dispatch.
//
// Dispatch validates locally, delegates signing to the wallet collaborator,
// and records successful transfers into the in-memory session history.
// While one dispatch is outstanding no second one is accepted — the pending
// flag is cleared in a single deferred cleanup on both outcomes.
package transfer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cryptodesk/backend/internal/domain/assets"
	"github.com/cryptodesk/backend/internal/domain/wallet"
	"github.com/cryptodesk/backend/internal/shared/id"
	"github.com/cryptodesk/backend/internal/shared/types"
)

// Notifier surfaces dispatch outcomes to the user
type Notifier interface {
	PushKind(kind types.NotificationKind, message string) string
}

// Orchestrator owns the transfer form, the single-flight dispatch flag, and
// the session history.
type Orchestrator struct {
	table    *assets.Table
	wallet   wallet.Wallet
	signer   wallet.Signer
	notifier Notifier
	logger   *zap.Logger

	pending atomic.Bool

	mu      sync.RWMutex
	form    types.TransferForm
	history []types.TransferRecord // most recent first
}

// NewOrchestrator creates a transfer orchestrator
func NewOrchestrator(table *assets.Table, w wallet.Wallet, s wallet.Signer, n Notifier, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		table:    table,
		wallet:   w,
		signer:   s,
		notifier: n,
		logger:   logger,
		form:     types.TransferForm{Asset: table.Native().Symbol},
	}
}

// SetForm replaces the transfer form inputs
func (o *Orchestrator) SetForm(form types.TransferForm) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.form = form
}

// Form returns the current transfer form
func (o *Orchestrator) Form() types.TransferForm {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.form
}

// Pending reports whether a dispatch is outstanding; the confirm control is
// disabled while this is true.
func (o *Orchestrator) Pending() bool {
	return o.pending.Load()
}

// History returns the session transfer history, most recent first
func (o *Orchestrator) History() []types.TransferRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]types.TransferRecord, len(o.history))
	copy(out, o.history)
	return out
}

// Dispatch validates the current form and delegates signing. On success the
// transfer is recorded and the amount input cleared; on rejection the form
// is left untouched, no history entry is added, and no retry is attempted.
func (o *Orchestrator) Dispatch(ctx context.Context) (*types.TransferRecord, error) {
	if !o.pending.CompareAndSwap(false, true) {
		return nil, types.ErrDispatchPending
	}
	defer o.pending.Store(false)

	form := o.Form()

	if !o.wallet.Connected() {
		o.notifier.PushKind(types.NoteNotConnected, "Connect wallet first!")
		return nil, types.ErrNotConnected
	}

	asset, ok := o.table.Lookup(form.Asset)
	if !ok {
		o.notifier.PushKind(types.NoteInfo, fmt.Sprintf("Unknown asset: %s", form.Asset))
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownAsset, form.Asset)
	}

	// Recipient and amount are rejected up front rather than deferred to
	// the signing collaborator.
	to, err := wallet.ParseAddress(form.Recipient)
	if err != nil {
		o.notifier.PushKind(types.NoteInfo, "Invalid recipient address")
		return nil, err
	}
	amountWei, err := wallet.ParseAmount(form.Amount, o.table.Chain().Decimals)
	if err != nil {
		o.notifier.PushKind(types.NoteInfo, "Invalid amount")
		return nil, err
	}

	var (
		hash string
		kind types.TransferKind
	)
	if asset.IsNative {
		kind = types.TransferSend
		hash, err = o.signer.SendNative(ctx, to, amountWei)
		if err != nil {
			o.logger.Info("native transfer rejected", zap.String("asset", asset.Symbol), zap.Error(err))
			o.notifier.PushKind(types.NoteUserRejected, "Rejected")
			return nil, fmt.Errorf("%w: %v", types.ErrUserRejected, err)
		}
	} else {
		kind = types.TransferToken
		token, err := wallet.ParseAddress(asset.ContractAddress)
		if err != nil {
			// The table validates addresses at startup, so this only fires
			// on a programming error; never sign against the zero address.
			o.logger.Error("malformed contract address in asset table",
				zap.String("asset", asset.Symbol),
				zap.String("address", asset.ContractAddress),
			)
			o.notifier.PushKind(types.NoteContractError, "Contract Error")
			return nil, fmt.Errorf("%w: bad contract address for %s", types.ErrContractError, asset.Symbol)
		}
		hash, err = o.signer.TransferToken(ctx, token, to, amountWei)
		if err != nil {
			o.logger.Info("token transfer failed", zap.String("asset", asset.Symbol), zap.Error(err))
			o.notifier.PushKind(types.NoteContractError, "Contract Error")
			return nil, fmt.Errorf("%w: %v", types.ErrContractError, err)
		}
	}

	if hash == "" {
		hash = id.NewTransferID().String()
	}

	record := types.TransferRecord{
		ID:        hash,
		Kind:      kind,
		Amount:    form.Amount,
		Asset:     asset.Symbol,
		Timestamp: time.Now(),
	}

	o.mu.Lock()
	o.history = append([]types.TransferRecord{record}, o.history...)
	o.form.Amount = ""
	o.mu.Unlock()

	o.notifier.PushKind(types.NoteSuccess, "Transaction Confirmed!")
	o.logger.Info("transfer confirmed",
		zap.String("tx", record.ID),
		zap.String("asset", record.Asset),
		zap.String("kind", string(record.Kind)),
	)

	return &record, nil
}
