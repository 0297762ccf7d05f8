package services

import (
	"sync"
	"time"

	domain "github.com/cosmichub/api/internal/domain"
)

// DefaultNotificationTTL matches the original auto-clear window.
const DefaultNotificationTTL = 3 * time.Second

// timerFunc schedules fn after d and returns a stop function. Swappable in
// tests to drive expiry by hand.
type timerFunc func(d time.Duration, fn func()) (stop func() bool)

// Notifier is the one-slot transient message channel. The newest message
// always wins; each message schedules its own auto-clear, and a sequence
// counter guarantees a stale timer can never erase a newer message.
type Notifier struct {
	mu      sync.Mutex
	seq     uint64
	current *domain.Notification
	ttl     time.Duration
	clock   func() time.Time
	after   timerFunc
}

// NotifierOption customises Notifier construction.
type NotifierOption func(*Notifier)

// WithNotificationTTL overrides the auto-clear window.
func WithNotificationTTL(ttl time.Duration) NotifierOption {
	return func(n *Notifier) {
		if ttl > 0 {
			n.ttl = ttl
		}
	}
}

// WithNotifierClock injects a custom clock, primarily for tests.
func WithNotifierClock(clock func() time.Time) NotifierOption {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithNotifierTimer replaces the timer scheduler, primarily for tests.
func WithNotifierTimer(after timerFunc) NotifierOption {
	return func(n *Notifier) {
		if after != nil {
			n.after = after
		}
	}
}

// NewNotifier constructs a Notifier with the default 3 second auto-clear.
func NewNotifier(opts ...NotifierOption) *Notifier {
	n := &Notifier{
		ttl:   DefaultNotificationTTL,
		clock: time.Now,
		after: func(d time.Duration, fn func()) func() bool {
			t := time.AfterFunc(d, fn)
			return t.Stop
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Publish replaces any pending message with the new one and schedules its
// auto-clear.
func (n *Notifier) Publish(text string, severity domain.Severity) {
	n.mu.Lock()
	n.seq++
	seq := n.seq
	n.current = &domain.Notification{
		Text:     text,
		Severity: severity,
		IssuedAt: n.clock(),
	}
	n.mu.Unlock()

	n.after(n.ttl, func() {
		n.expire(seq)
	})
}

// Current returns the pending message, if any.
func (n *Notifier) Current() (domain.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return domain.Notification{}, false
	}
	return *n.current, true
}

// Clear drops the pending message immediately.
func (n *Notifier) Clear() {
	n.mu.Lock()
	n.current = nil
	n.mu.Unlock()
}

func (n *Notifier) expire(seq uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	// Only the timer belonging to the currently held message may clear it.
	if n.seq != seq {
		return
	}
	n.current = nil
}
