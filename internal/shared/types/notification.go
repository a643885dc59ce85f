package types

import "time"

// NotificationKind classifies user-facing events. Feed and storage failures
// are rate-limited to avoid flooding on a persistently broken environment.
type NotificationKind string

const (
	NoteInfo               NotificationKind = "info"
	NoteSuccess            NotificationKind = "success"
	NoteNotConnected       NotificationKind = "not_connected"
	NoteUserRejected       NotificationKind = "user_rejected"
	NoteContractError      NotificationKind = "contract_error"
	NoteFeedUnavailable    NotificationKind = "feed_unavailable"
	NoteStorageUnavailable NotificationKind = "storage_unavailable"
)

// Notification is a short-lived message. The queue owns the full lifecycle:
// created on push, destroyed after a fixed delay regardless of user action.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}
