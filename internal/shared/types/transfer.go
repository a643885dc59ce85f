package types

import "time"

// TransferKind distinguishes native value transfers from ERC20 contract calls
type TransferKind string

const (
	TransferSend  TransferKind = "SEND"
	TransferToken TransferKind = "TOKEN"
)

// TransferRecord is one completed transfer. Records are created only after
// the signing collaborator reports success, appended most-recent-first, and
// live for the session only.
type TransferRecord struct {
	ID        string       `json:"id"` // transaction hash
	Kind      TransferKind `json:"kind"`
	Amount    string       `json:"amount"`
	Asset     string       `json:"asset"`
	Timestamp time.Time    `json:"timestamp"`
}

// TransferForm holds the pending transfer inputs. The amount is cleared on
// success and left untouched on rejection so the user can resubmit.
type TransferForm struct {
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
}
