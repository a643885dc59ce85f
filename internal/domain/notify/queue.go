// Package notify implements the self-expiring notification queue.
//
// Every pushed notification is visible immediately and removed exactly TTL
// after creation, independent of any other notification. Feed and storage
// failure kinds are rate-limited so a persistently broken environment does
// not flood the queue.
package notify

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cryptodesk/backend/internal/shared/id"
	"github.com/cryptodesk/backend/internal/shared/types"
)

// DefaultTTL is how long a notification stays visible
const DefaultTTL = 4 * time.Second

// suppressedEvery is the minimum spacing between repeat notifications of a
// rate-limited kind
const suppressedEvery = 30 * time.Second

// Queue owns the full notification lifecycle
type Queue struct {
	mu       sync.Mutex
	ttl      time.Duration
	items    []types.Notification // insertion order
	timers   map[string]*time.Timer
	limiters map[types.NotificationKind]*rate.Limiter
	subs     map[chan types.Notification]struct{}
	closed   bool
}

// New creates a queue with the default TTL
func New() *Queue {
	return NewWithTTL(DefaultTTL)
}

// NewWithTTL creates a queue with a custom TTL (tests use short ones)
func NewWithTTL(ttl time.Duration) *Queue {
	return &Queue{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
		limiters: map[types.NotificationKind]*rate.Limiter{
			types.NoteFeedUnavailable:    rate.NewLimiter(rate.Every(suppressedEvery), 1),
			types.NoteStorageUnavailable: rate.NewLimiter(rate.Every(suppressedEvery), 1),
		},
		subs: make(map[chan types.Notification]struct{}),
	}
}

// Push enqueues an informational notification and returns its id
func (q *Queue) Push(message string) string {
	return q.PushKind(types.NoteInfo, message)
}

// PushKind enqueues a notification of the given kind. Rate-limited kinds
// may be suppressed, in which case the returned id is empty.
func (q *Queue) PushKind(kind types.NotificationKind, message string) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ""
	}
	if lim, limited := q.limiters[kind]; limited && !lim.Allow() {
		return ""
	}

	n := types.Notification{
		ID:        id.NewNotificationID().String(),
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	}
	q.items = append(q.items, n)
	q.timers[n.ID] = time.AfterFunc(q.ttl, func() { q.expire(n.ID) })

	for ch := range q.subs {
		select {
		case ch <- n:
		default: // slow subscriber, drop
		}
	}

	return n.ID
}

// Visible returns the currently visible notifications in insertion order
func (q *Queue) Visible() []types.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]types.Notification, len(q.items))
	copy(out, q.items)
	return out
}

// Subscribe returns a channel receiving every non-suppressed notification.
// The caller must Unsubscribe when done.
func (q *Queue) Subscribe() chan types.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch := make(chan types.Notification, 16)
	q.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a subscription channel
func (q *Queue) Unsubscribe(ch chan types.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.subs[ch]; ok {
		delete(q.subs, ch)
		close(ch)
	}
}

// Close stops all expiry timers and subscriptions
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	for _, t := range q.timers {
		t.Stop()
	}
	q.timers = map[string]*time.Timer{}
	q.items = nil
	for ch := range q.subs {
		close(ch)
	}
	q.subs = map[chan types.Notification]struct{}{}
}

func (q *Queue) expire(noteID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.timers, noteID)
	for i, n := range q.items {
		if n.ID == noteID {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}
