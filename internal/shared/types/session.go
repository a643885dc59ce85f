package types

import "time"

// DesktopState captures the cross-cutting UI state owned by the terminal
type DesktopState struct {
	Theme        string `json:"theme"`
	ActiveSymbol string `json:"active_symbol"`
}

// WindowSnapshot is one window's geometry at capture time
type WindowSnapshot struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Layout WindowLayout `json:"layout"`
}

// Session is a saved desktop arrangement: theme, active chart symbol, and
// every window's geometry
type Session struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"created_at"`
	Desktop   DesktopState     `json:"desktop"`
	Windows   []WindowSnapshot `json:"windows"`
}

// SessionMetadata is the listing view of a session
type SessionMetadata struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Windows   int       `json:"windows"`
}

// ToMetadata converts a session to its listing form
func (s *Session) ToMetadata() SessionMetadata {
	return SessionMetadata{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		Windows:   len(s.Windows),
	}
}
