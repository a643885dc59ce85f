// Package id provides centralized ID generation for the backend.
//
// All identifiers are ULIDs with a type-specific prefix (txn_*, note_*,
// sess_*) so logs stay readable and IDs cannot be confused across domains.
// ULIDs are lexicographically sortable, which keeps history and notification
// ordering queries trivial. HTTP request IDs are plain UUIDs minted by the
// API middleware and do not come from this package.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TransferID identifies a completed transfer (fallback when no tx hash)
type TransferID string

// NotificationID identifies a queued notification
type NotificationID string

// SessionID identifies a saved desktop session
type SessionID string

const (
	TransferPrefix     = "txn"
	NotificationPrefix = "note"
	SessionPrefix      = "sess"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with secure entropy
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewTransferID generates a new transfer ID
func NewTransferID() TransferID {
	return TransferID(Default().GenerateWithPrefix(TransferPrefix))
}

// NewNotificationID generates a new notification ID
func NewNotificationID() NotificationID {
	return NotificationID(Default().GenerateWithPrefix(NotificationPrefix))
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

func (id TransferID) String() string     { return string(id) }
func (id NotificationID) String() string { return string(id) }
func (id SessionID) String() string      { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from a ULID string
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
