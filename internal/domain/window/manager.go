// Package window implements the draggable/resizable window shell.
//
// A window's geometry is sourced from the layout store once at open and
// written back on gesture completion only (drag-stop, resize-stop) — never
// on intermediate movement frames. Windows are independent: no z-order
// coordination, no collision resolution.
package window

import (
	"sort"
	"sync"

	"github.com/cryptodesk/backend/internal/domain/layout"
	"github.com/cryptodesk/backend/internal/shared/types"
)

// Window is one open shell with its current geometry
type Window struct {
	ID     string             `json:"id"`
	Title  string             `json:"title"`
	Layout types.WindowLayout `json:"layout"`
}

// Manager owns the open window set. Gesture persistence is serialized per
// manager, so writes for one window are strictly ordered, last-write-wins.
type Manager struct {
	mu      sync.RWMutex
	store   *layout.Store
	windows map[string]*Window
}

// NewManager creates a window manager backed by the given layout store
func NewManager(store *layout.Store) *Manager {
	return &Manager{
		store:   store,
		windows: make(map[string]*Window),
	}
}

// Open creates (or returns) the window with id, sourcing geometry from the
// layout store with the caller-supplied defaults as fallback. Stored
// geometry is clamped to the shell minimums, not trusted.
func (m *Manager) Open(id, title string, defaults types.WindowLayout) *Window {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.windows[id]; ok {
		return snapshot(w)
	}

	w := &Window{
		ID:     id,
		Title:  title,
		Layout: m.store.Load(id, defaults).Clamped(),
	}
	m.windows[id] = w
	return snapshot(w)
}

// DragStop completes a drag gesture: the new position is persisted together
// with the current size.
func (m *Manager) DragStop(id string, pos types.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[id]
	if !ok {
		return types.ErrWindowNotFound
	}
	w.Layout.Position = pos
	m.store.Save(id, w.Layout)
	return nil
}

// ResizeStop completes a resize gesture: the new size is clamped, applied
// in-memory immediately so dependent layout stays consistent, and persisted
// with the current position.
func (m *Manager) ResizeStop(id string, size types.Size) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[id]
	if !ok {
		return types.ErrWindowNotFound
	}
	w.Layout.Size = size
	w.Layout = w.Layout.Clamped()
	m.store.Save(id, w.Layout)
	return nil
}

// Restore applies a snapshot geometry to an open window and persists it.
// Used by session restore.
func (m *Manager) Restore(id string, l types.WindowLayout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[id]
	if !ok {
		return types.ErrWindowNotFound
	}
	w.Layout = l.Clamped()
	m.store.Save(id, w.Layout)
	return nil
}

// Get returns a copy of the window with id
func (m *Manager) Get(id string) (*Window, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.windows[id]
	if !ok {
		return nil, false
	}
	return snapshot(w), true
}

// List returns copies of all open windows sorted by identifier
func (m *Manager) List() []*Window {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Window, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, snapshot(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func snapshot(w *Window) *Window {
	c := *w
	return &c
}
