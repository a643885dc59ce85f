package types

import "errors"

// Boundary error kinds. All of these are caught where they occur and turned
// into auto-expiring notifications; none propagate to an unhandled state.
var (
	ErrNotConnected       = errors.New("wallet not connected")
	ErrUserRejected       = errors.New("rejected by user")
	ErrContractError      = errors.New("contract error")
	ErrFeedUnavailable    = errors.New("price feed unavailable")
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrUnknownAsset     = errors.New("unknown asset")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrDispatchPending  = errors.New("a dispatch is already pending")
	ErrWindowNotFound   = errors.New("window not found")
	ErrSessionNotFound  = errors.New("session not found")
)
