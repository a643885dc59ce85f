package transfer

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptodesk/backend/internal/domain/assets"
	"github.com/cryptodesk/backend/internal/shared/types"
)

const goodRecipient = "0x1111111111111111111111111111111111111111"

type fakeWallet struct {
	connected bool
}

func (w *fakeWallet) Connected() bool                 { return w.connected }
func (w *fakeWallet) Address() (common.Address, bool) { return common.Address{}, w.connected }
func (w *fakeWallet) NativeBalance(context.Context) (*big.Int, error) {
	return big.NewInt(0), nil
}

type fakeSigner struct {
	mu          sync.Mutex
	nativeCalls int
	tokenCalls  int
	lastToken   common.Address
	nativeErr   error
	tokenErr    error
	hash        string
	block       chan struct{} // when set, calls wait until closed
}

func (s *fakeSigner) SendNative(_ context.Context, _ common.Address, _ *big.Int) (string, error) {
	s.mu.Lock()
	s.nativeCalls++
	block := s.block
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	return s.hash, s.nativeErr
}

func (s *fakeSigner) TransferToken(_ context.Context, token, _ common.Address, _ *big.Int) (string, error) {
	s.mu.Lock()
	s.tokenCalls++
	s.lastToken = token
	s.mu.Unlock()
	return s.hash, s.tokenErr
}

type fakeNotifier struct {
	mu    sync.Mutex
	kinds []types.NotificationKind
	msgs  []string
}

func (n *fakeNotifier) PushKind(kind types.NotificationKind, message string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	n.msgs = append(n.msgs, message)
	return "id"
}

func (n *fakeNotifier) last() (types.NotificationKind, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.kinds) == 0 {
		return "", ""
	}
	return n.kinds[len(n.kinds)-1], n.msgs[len(n.msgs)-1]
}

func newOrchestrator(connected bool, signer *fakeSigner) (*Orchestrator, *fakeNotifier) {
	notifier := &fakeNotifier{}
	o := NewOrchestrator(assets.Default(), &fakeWallet{connected: connected}, signer, notifier, nil)
	return o, notifier
}

func TestDispatchDisconnected(t *testing.T) {
	signer := &fakeSigner{}
	o, notifier := newOrchestrator(false, signer)
	o.SetForm(types.TransferForm{Asset: "ANKR", Amount: "1", Recipient: goodRecipient})

	_, err := o.Dispatch(context.Background())
	assert.ErrorIs(t, err, types.ErrNotConnected)

	kind, msg := notifier.last()
	assert.Equal(t, types.NoteNotConnected, kind)
	assert.Equal(t, "Connect wallet first!", msg)

	assert.Zero(t, signer.nativeCalls)
	assert.Zero(t, signer.tokenCalls)
	assert.Empty(t, o.History())
}

func TestDispatchNativeSuccess(t *testing.T) {
	signer := &fakeSigner{hash: "0xabc"}
	o, notifier := newOrchestrator(true, signer)
	o.SetForm(types.TransferForm{Asset: "ANKR", Amount: "0.5", Recipient: goodRecipient})

	record, err := o.Dispatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "0xabc", record.ID)
	assert.Equal(t, types.TransferSend, record.Kind)
	assert.Equal(t, "0.5", record.Amount)
	assert.Equal(t, "ANKR", record.Asset)

	kind, msg := notifier.last()
	assert.Equal(t, types.NoteSuccess, kind)
	assert.Equal(t, "Transaction Confirmed!", msg)

	// Amount cleared, asset and recipient kept for the next transfer.
	form := o.Form()
	assert.Empty(t, form.Amount)
	assert.Equal(t, "ANKR", form.Asset)
	assert.Equal(t, goodRecipient, form.Recipient)

	history := o.History()
	require.Len(t, history, 1)
	assert.Equal(t, record.ID, history[0].ID)
}

func TestDispatchTokenSuccess(t *testing.T) {
	signer := &fakeSigner{hash: "0xdef"}
	o, _ := newOrchestrator(true, signer)
	o.SetForm(types.TransferForm{Asset: "SOL", Amount: "2", Recipient: goodRecipient})

	record, err := o.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.TransferToken, record.Kind)
	assert.Equal(t, 1, signer.tokenCalls)
	assert.Zero(t, signer.nativeCalls)
}

func TestDispatchTokenSignsAgainstAssetContract(t *testing.T) {
	signer := &fakeSigner{hash: "0xdef"}
	o, _ := newOrchestrator(true, signer)

	// Every token asset must reach the signer with its own contract
	// address, never the zero address.
	for _, asset := range assets.Default().List() {
		if asset.IsNative {
			continue
		}
		o.SetForm(types.TransferForm{Asset: asset.Symbol, Amount: "1", Recipient: goodRecipient})
		_, err := o.Dispatch(context.Background())
		require.NoError(t, err, "asset %s", asset.Symbol)
		assert.Equal(t, common.HexToAddress(asset.ContractAddress), signer.lastToken, "asset %s", asset.Symbol)
		assert.NotEqual(t, common.Address{}, signer.lastToken, "asset %s", asset.Symbol)
	}
}

func TestDispatchNativeRejected(t *testing.T) {
	signer := &fakeSigner{nativeErr: errors.New("user denied signature")}
	o, notifier := newOrchestrator(true, signer)
	o.SetForm(types.TransferForm{Asset: "ANKR", Amount: "1", Recipient: goodRecipient})

	_, err := o.Dispatch(context.Background())
	assert.ErrorIs(t, err, types.ErrUserRejected)

	kind, msg := notifier.last()
	assert.Equal(t, types.NoteUserRejected, kind)
	assert.Equal(t, "Rejected", msg)

	// Form untouched, no history entry, no automatic retry.
	assert.Equal(t, "1", o.Form().Amount)
	assert.Empty(t, o.History())
	assert.Equal(t, 1, signer.nativeCalls)
}

func TestDispatchTokenContractError(t *testing.T) {
	signer := &fakeSigner{tokenErr: errors.New("execution reverted")}
	o, notifier := newOrchestrator(true, signer)
	o.SetForm(types.TransferForm{Asset: "ztUSD", Amount: "10", Recipient: goodRecipient})

	_, err := o.Dispatch(context.Background())
	assert.ErrorIs(t, err, types.ErrContractError)

	kind, msg := notifier.last()
	assert.Equal(t, types.NoteContractError, kind)
	assert.Equal(t, "Contract Error", msg)
	assert.Equal(t, "10", o.Form().Amount)
	assert.Empty(t, o.History())
}

func TestDispatchInvalidInputs(t *testing.T) {
	signer := &fakeSigner{}
	o, _ := newOrchestrator(true, signer)

	o.SetForm(types.TransferForm{Asset: "ANKR", Amount: "1", Recipient: "not-an-address"})
	_, err := o.Dispatch(context.Background())
	assert.ErrorIs(t, err, types.ErrInvalidRecipient)

	o.SetForm(types.TransferForm{Asset: "ANKR", Amount: "-3", Recipient: goodRecipient})
	_, err = o.Dispatch(context.Background())
	assert.ErrorIs(t, err, types.ErrInvalidAmount)

	o.SetForm(types.TransferForm{Asset: "DOGE", Amount: "1", Recipient: goodRecipient})
	_, err = o.Dispatch(context.Background())
	assert.ErrorIs(t, err, types.ErrUnknownAsset)

	assert.Zero(t, signer.nativeCalls)
	assert.Zero(t, signer.tokenCalls)
}

func TestDispatchSingleFlight(t *testing.T) {
	signer := &fakeSigner{hash: "0xabc", block: make(chan struct{})}
	o, _ := newOrchestrator(true, signer)
	o.SetForm(types.TransferForm{Asset: "ANKR", Amount: "1", Recipient: goodRecipient})

	done := make(chan error, 1)
	go func() {
		_, err := o.Dispatch(context.Background())
		done <- err
	}()

	// Wait for the first dispatch to reach the signer, then try a second.
	require.Eventually(t, func() bool { return o.Pending() }, time.Second, time.Millisecond)

	_, err := o.Dispatch(context.Background())
	assert.ErrorIs(t, err, types.ErrDispatchPending)

	close(signer.block)
	require.NoError(t, <-done)
	assert.False(t, o.Pending())

	// The flag clears on completion, so a new dispatch is accepted.
	o.SetForm(types.TransferForm{Asset: "ANKR", Amount: "1", Recipient: goodRecipient})
	_, err = o.Dispatch(context.Background())
	assert.NoError(t, err)
}

func TestDispatchGeneratedIDWhenNoHash(t *testing.T) {
	signer := &fakeSigner{hash: ""}
	o, _ := newOrchestrator(true, signer)
	o.SetForm(types.TransferForm{Asset: "ANKR", Amount: "1", Recipient: goodRecipient})

	record, err := o.Dispatch(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
}
