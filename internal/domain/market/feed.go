// Package market polls the external price collaborator and holds the
// latest snapshot.
//
// The feed fetches immediately on start and then on a fixed interval until
// stopped. Polls are independent: a slow fetch never delays the schedule,
// overlapping fetches are tolerated, and the last fetch to complete wins.
// A failed fetch keeps the previous snapshot — stale data beats blank data.
package market

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cryptodesk/backend/internal/shared/types"
)

// DefaultInterval is the polling period
const DefaultInterval = 60 * time.Second

// DefaultTopN is how many assets a snapshot holds
const DefaultTopN = 20

// Fetcher is the price collaborator boundary
type Fetcher interface {
	TopAssets(ctx context.Context, limit int) ([]types.MarketAsset, error)
}

// Notifier surfaces feed failures as (rate-limited) notifications
type Notifier interface {
	PushKind(kind types.NotificationKind, message string) string
}

// Feed owns the polling loop and the latest snapshot
type Feed struct {
	fetcher  Fetcher
	notifier Notifier
	logger   *zap.Logger
	interval time.Duration
	topN     int

	mu       sync.RWMutex
	snapshot types.MarketSnapshot
	has      bool
	subs     map[chan types.MarketSnapshot]struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

// NewFeed creates a market feed; Start must be called to begin polling
func NewFeed(fetcher Fetcher, notifier Notifier, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		fetcher:  fetcher,
		notifier: notifier,
		logger:   logger,
		interval: DefaultInterval,
		topN:     DefaultTopN,
		subs:     make(map[chan types.MarketSnapshot]struct{}),
		stop:     make(chan struct{}),
	}
}

// WithInterval overrides the polling period (tests use short ones)
func (f *Feed) WithInterval(d time.Duration) *Feed {
	f.interval = d
	return f
}

// WithTopN overrides the snapshot size
func (f *Feed) WithTopN(n int) *Feed {
	f.topN = n
	return f
}

// Start begins polling: one immediate fetch, then one per interval. The
// ticker fires on schedule regardless of whether a prior fetch settled.
func (f *Feed) Start(ctx context.Context) {
	go func() {
		f.poll(ctx)

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-f.stop:
				return
			case <-ticker.C:
				go f.poll(ctx)
			}
		}
	}()
}

// Stop cancels polling. Idempotent; no further polls are issued and no
// timers are left behind.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
}

// Snapshot returns the latest snapshot, if any fetch has succeeded yet
func (f *Feed) Snapshot() (types.MarketSnapshot, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.snapshot, f.has
}

// Subscribe returns a channel receiving each new snapshot. The caller must
// Unsubscribe when done.
func (f *Feed) Subscribe() chan types.MarketSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan types.MarketSnapshot, 4)
	f.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a subscription channel
func (f *Feed) Unsubscribe(ch chan types.MarketSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
}

func (f *Feed) poll(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.interval)
	defer cancel()

	assets, err := f.fetcher.TopAssets(fetchCtx, f.topN)
	if err != nil {
		f.logger.Warn("market fetch failed", zap.Error(err))
		if f.notifier != nil {
			f.notifier.PushKind(types.NoteFeedUnavailable, "Market data feed unavailable")
		}
		return // previous snapshot stays; next poll proceeds on schedule
	}

	snap := types.MarketSnapshot{Assets: assets, FetchedAt: time.Now()}

	f.mu.Lock()
	f.snapshot = snap
	f.has = true
	for ch := range f.subs {
		select {
		case ch <- snap:
		default: // slow subscriber, drop
		}
	}
	f.mu.Unlock()

	f.logger.Debug("market snapshot updated", zap.Int("assets", len(assets)))
}
