// Package session persists and restores desktop arrangements.
//
// A session captures the theme, the active chart symbol, and every window's
// geometry. Sessions are stored one JSON document per id and can be
// exported as a single gzip archive for backup.
package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/cryptodesk/backend/internal/shared/id"
	"github.com/cryptodesk/backend/internal/shared/types"
)

// Desktop is the composition-root boundary the session manager captures
// from and restores into.
type Desktop interface {
	State() types.DesktopState
	Snapshot() []types.WindowSnapshot
	Apply(state types.DesktopState, windows []types.WindowSnapshot)
}

// Manager handles session persistence
type Manager struct {
	desktop Desktop
	dir     string
	logger  *zap.Logger

	sessions sync.Map // id -> *types.Session
}

// NewManager creates a session manager storing documents under dir
func NewManager(desktop Desktop, dir string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}

	m := &Manager{desktop: desktop, dir: dir, logger: logger}
	m.loadExisting()
	return m, nil
}

// Save captures the current desktop and writes it to disk
func (m *Manager) Save(name string) (*types.Session, error) {
	if name == "" {
		name = "default"
	}

	session := &types.Session{
		ID:        id.NewSessionID().String(),
		Name:      name,
		CreatedAt: time.Now(),
		Desktop:   m.desktop.State(),
		Windows:   m.desktop.Snapshot(),
	}

	data, err := sonic.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(m.path(session.ID), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}

	m.sessions.Store(session.ID, session)
	m.logger.Info("session saved", zap.String("id", session.ID), zap.String("name", name))
	return session, nil
}

// Get returns a saved session
func (m *Manager) Get(sessionID string) (*types.Session, error) {
	if cached, ok := m.sessions.Load(sessionID); ok {
		return cached.(*types.Session), nil
	}

	data, err := os.ReadFile(m.path(sessionID))
	if err != nil {
		return nil, types.ErrSessionNotFound
	}

	var session types.Session
	if err := sonic.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("session %s has empty ID field", sessionID)
	}

	m.sessions.Store(sessionID, &session)
	return &session, nil
}

// Restore applies a saved session to the desktop
func (m *Manager) Restore(sessionID string) error {
	session, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	m.desktop.Apply(session.Desktop, session.Windows)
	m.logger.Info("session restored", zap.String("id", sessionID))
	return nil
}

// List returns metadata for all saved sessions
func (m *Manager) List() []types.SessionMetadata {
	var out []types.SessionMetadata
	m.sessions.Range(func(_, value interface{}) bool {
		out = append(out, value.(*types.Session).ToMetadata())
		return true
	})
	return out
}

// Delete removes a saved session
func (m *Manager) Delete(sessionID string) error {
	if _, ok := m.sessions.Load(sessionID); !ok {
		return types.ErrSessionNotFound
	}
	if err := os.Remove(m.path(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.sessions.Delete(sessionID)
	return nil
}

// Export writes all sessions as a gzip-compressed JSON array
func (m *Manager) Export(w io.Writer) error {
	var all []*types.Session
	m.sessions.Range(func(_, value interface{}) bool {
		all = append(all, value.(*types.Session))
		return true
	})

	data, err := sonic.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	gz := gzip.NewWriter(w)
	if _, err := gz.Write(data); err != nil {
		return err
	}
	return gz.Close()
}

// Import reads a gzip-compressed JSON array of sessions and stores each one
func (m *Manager) Import(r io.Reader) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return 0, fmt.Errorf("failed to read archive: %w", err)
	}

	var all []*types.Session
	if err := sonic.Unmarshal(data, &all); err != nil {
		return 0, fmt.Errorf("failed to parse archive: %w", err)
	}

	count := 0
	for _, session := range all {
		if session.ID == "" {
			continue
		}
		doc, err := sonic.Marshal(session)
		if err != nil {
			continue
		}
		if err := os.WriteFile(m.path(session.ID), doc, 0o644); err != nil {
			continue
		}
		m.sessions.Store(session.ID, session)
		count++
	}
	return count, nil
}

// loadExisting caches session documents already on disk
func (m *Manager) loadExisting() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".session") {
			continue
		}
		sessionID := strings.TrimSuffix(e.Name(), ".session")
		if _, err := m.Get(sessionID); err != nil {
			m.logger.Warn("skipping unreadable session", zap.String("id", sessionID))
		}
	}
}

func (m *Manager) path(sessionID string) string {
	return filepath.Join(m.dir, sessionID+".session")
}
