package types

// Minimum window dimensions enforced by the shell. Stored values below these
// are clamped, not trusted, so a corrupted layout can never produce an
// unusable window.
const (
	MinWindowWidth  = 250
	MinWindowHeight = 180
)

// Size represents window dimensions in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Position represents window coordinates on the desktop
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// WindowLayout is the persisted geometry of a single window
type WindowLayout struct {
	Size     Size     `json:"size"`
	Position Position `json:"position"`
}

// Valid reports whether the layout is structurally usable. Malformed or
// zero-valued stored data fails this check and callers fall back to defaults.
func (l WindowLayout) Valid() bool {
	return l.Size.Width > 0 && l.Size.Height > 0
}

// Clamped returns a copy with dimensions raised to the shell minimums.
func (l WindowLayout) Clamped() WindowLayout {
	if l.Size.Width < MinWindowWidth {
		l.Size.Width = MinWindowWidth
	}
	if l.Size.Height < MinWindowHeight {
		l.Size.Height = MinWindowHeight
	}
	return l
}
