package toast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexora-dev/storefront/pkg/bus"
)

// EventName is published on the bus whenever the queue changes.
const EventName = bus.ToastsChanged

// DefaultDuration is how long a toast stays visible unless told otherwise.
const DefaultDuration = 3 * time.Second

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Toast is one transient notification.
type Toast struct {
	ID        string
	Type      Type
	Title     string
	Message   string
	Duration  time.Duration
	CreatedAt time.Time
}

// Expired reports whether the toast should no longer be shown at now.
func (t Toast) Expired(now time.Time) bool {
	return t.Duration > 0 && !now.Before(t.CreatedAt.Add(t.Duration))
}

// Queue holds the toasts currently visible. It is safe for concurrent use.
type Queue struct {
	events   bus.Publisher
	logger   *slog.Logger
	now      func() time.Time
	duration time.Duration

	mu     sync.Mutex
	toasts []Toast
}

// Option configures a Queue.
type Option func(*Queue)

// WithPublisher sets where toastsChanged is published.
func WithPublisher(p bus.Publisher) Option {
	return func(q *Queue) {
		q.events = p
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithClock overrides the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithDefaultDuration changes the default display time.
func WithDefaultDuration(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.duration = d
		}
	}
}

// NewQueue creates an empty queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		logger:   slog.Default(),
		now:      time.Now,
		duration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push adds t, filling in ID, CreatedAt and Duration when unset, and
// returns its ID.
func (q *Queue) Push(t Toast) string {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = q.now()
	}
	if t.Duration == 0 {
		t.Duration = q.duration
	}

	q.mu.Lock()
	q.toasts = append(q.toasts, t)
	q.mu.Unlock()

	q.logger.Debug("toast", "type", string(t.Type), "message", t.Message)
	q.changed()
	return t.ID
}

// Show displays a toast of the given type for the default duration.
func (q *Queue) Show(level Type, message string) string {
	return q.Push(Toast{Type: level, Message: message})
}

// ShowFor displays a toast for d.
func (q *Queue) ShowFor(level Type, message string, d time.Duration) string {
	return q.Push(Toast{Type: level, Message: message, Duration: d})
}

// Success shows a success toast.
//
//	q.Success("Order placed!")
func (q *Queue) Success(message string) string {
	return q.Show(TypeSuccess, message)
}

// Error shows an error toast.
//
//	q.Error("Failed to add to cart")
func (q *Queue) Error(message string) string {
	return q.Show(TypeError, message)
}

// Warning shows a warning toast.
func (q *Queue) Warning(message string) string {
	return q.Show(TypeWarning, message)
}

// Info shows an info toast.
func (q *Queue) Info(message string) string {
	return q.Show(TypeInfo, message)
}

// WithTitle shows a toast with a title and message.
//
//	q.WithTitle(toast.TypeSuccess, "Checkout", "Your order has been placed.")
func (q *Queue) WithTitle(level Type, title, message string) string {
	return q.Push(Toast{Type: level, Title: title, Message: message})
}

// Dismiss removes the toast with id. It reports whether one was removed.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	idx := -1
	for i, t := range q.toasts {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	q.toasts = append(q.toasts[:idx:idx], q.toasts[idx+1:]...)
	q.mu.Unlock()

	q.changed()
	return true
}

// Active prunes expired toasts and returns the rest, oldest first.
func (q *Queue) Active() []Toast {
	now := q.now()

	q.mu.Lock()
	kept := q.toasts[:0:0]
	for _, t := range q.toasts {
		if !t.Expired(now) {
			kept = append(kept, t)
		}
	}
	pruned := len(kept) != len(q.toasts)
	q.toasts = kept
	out := append([]Toast(nil), kept...)
	q.mu.Unlock()

	if pruned {
		q.changed()
	}
	return out
}

// Drain removes and returns every toast, expired or not.
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	out := q.toasts
	q.toasts = nil
	q.mu.Unlock()

	if len(out) > 0 {
		q.changed()
	}
	return out
}

// Len returns the number of queued toasts, including expired ones not yet
// pruned.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

func (q *Queue) changed() {
	if q.events != nil {
		q.events.Publish(EventName)
	}
}
