package layout

import (
	"fmt"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/cryptodesk/backend/internal/shared/types"
)

// keyNamespace embeds a version token so a schema change cannot collide
// with layouts persisted by older deployments.
const keyNamespace = "term_v1_layout"

// Reporter surfaces degraded-storage events. Implementations are expected
// to rate-limit repeats; the store itself never raises one per call.
type Reporter interface {
	PushKind(kind types.NotificationKind, message string) string
}

// Store persists window layouts keyed by window identifier
type Store struct {
	kv       KV
	logger   *zap.Logger
	reporter Reporter
}

// NewStore creates a layout store over the given KV backend
func NewStore(kv KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// WithReporter attaches a degraded-storage reporter
func (s *Store) WithReporter(r Reporter) *Store {
	s.reporter = r
	return s
}

// Load returns the saved layout for windowID if present and structurally
// valid, else fallback unmodified. Malformed stored data is treated as
// absent; this method never fails.
func (s *Store) Load(windowID string, fallback types.WindowLayout) types.WindowLayout {
	raw, ok, err := s.kv.Get(s.key(windowID))
	if err != nil {
		s.degraded("load", windowID, err)
		return fallback
	}
	if !ok {
		return fallback
	}

	var saved types.WindowLayout
	if err := sonic.UnmarshalString(raw, &saved); err != nil {
		s.logger.Debug("discarding malformed layout",
			zap.String("window_id", windowID),
			zap.Error(err),
		)
		return fallback
	}
	if !saved.Valid() {
		return fallback
	}
	return saved
}

// Save overwrites the stored layout for windowID. Best-effort: storage
// failures are logged and reported, never returned.
func (s *Store) Save(windowID string, l types.WindowLayout) {
	raw, err := sonic.MarshalString(l)
	if err != nil {
		s.logger.Debug("failed to encode layout",
			zap.String("window_id", windowID),
			zap.Error(err),
		)
		return
	}
	if err := s.kv.Set(s.key(windowID), raw); err != nil {
		s.degraded("save", windowID, err)
	}
}

func (s *Store) key(windowID string) string {
	return fmt.Sprintf("%s_%s", keyNamespace, windowID)
}

func (s *Store) degraded(op, windowID string, err error) {
	s.logger.Debug("layout storage unavailable",
		zap.String("op", op),
		zap.String("window_id", windowID),
		zap.Error(err),
	)
	if s.reporter != nil {
		s.reporter.PushKind(types.NoteStorageUnavailable, "Layout storage unavailable")
	}
}
