package bus

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nexora-dev/storefront/pkg/middleware"
)

// Event names a change notification. Events carry no payload: they only
// tell listeners to go re-read the backend.
type Event string

const (
	// CartChanged is published after any successful cart mutation or checkout.
	CartChanged Event = "cartChanged"

	// WishlistChanged is published after a wishlist mutation.
	WishlistChanged Event = "wishlistChanged"

	// SessionChanged is published after login, signup, logout or expiry.
	SessionChanged Event = "sessionChanged"

	// ToastsChanged is published when the toast queue changes.
	ToastsChanged Event = "toastsChanged"
)

// Handler reacts to an event.
type Handler func()

// Publisher is the publishing half of a Bus.
type Publisher interface {
	Publish(ev Event)
}

// Bus is a synchronous, in-process broadcast channel.
// It is safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Event][]*Subscription
	logger *slog.Logger
}

// Subscription is a live registration. Unsubscribe it when the owning view
// is torn down.
type Subscription struct {
	id      uint64
	event   Event
	handler Handler
	bus     *Bus
	active  atomic.Bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report handler panics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[Event][]*Subscription),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for ev. Handlers run in subscription order.
func (b *Bus) Subscribe(ev Event, handler Handler) *Subscription {
	if handler == nil {
		panic("bus: nil handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s := &Subscription{
		id:      b.nextID,
		event:   ev,
		handler: handler,
		bus:     b,
	}
	s.active.Store(true)
	b.subs[ev] = append(b.subs[ev], s)
	return s
}

// Event returns the event this subscription listens to.
func (s *Subscription) Event() Event {
	return s.event
}

// Active reports whether the subscription still receives events.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

// Unsubscribe stops delivery. Safe to call more than once, and from inside
// a handler.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.active.CompareAndSwap(true, false) {
		return
	}
	s.bus.remove(s)
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[s.event]
	for i, existing := range list {
		if existing.id == s.id {
			// Keep order: handlers must fire in subscription order.
			next := make([]*Subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(b.subs, s.event)
			} else {
				b.subs[s.event] = next
			}
			return
		}
	}
}

// Publish invokes every handler currently subscribed to ev, in order, on
// the caller's goroutine. Handlers subscribed during dispatch are not
// called; handlers unsubscribed during dispatch are skipped.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := b.subs[ev]
	b.mu.Unlock()

	delivered := 0
	for _, s := range subs {
		if !s.active.Load() {
			continue
		}
		b.invoke(s)
		delivered++
	}
	middleware.RecordPublish(string(ev), delivered)
}

func (b *Bus) invoke(s *Subscription) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bus: handler panicked",
				"event", string(s.event),
				"subscription", s.id,
				"panic", r,
			)
		}
	}()
	s.handler()
}

// Subscribers returns the number of live subscriptions for ev.
func (b *Bus) Subscribers(ev Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[ev])
}

// Group collects subscriptions so a view can drop them all on unmount.
type Group struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add records s and returns it.
func (g *Group) Add(s *Subscription) *Subscription {
	g.mu.Lock()
	g.subs = append(g.subs, s)
	g.mu.Unlock()
	return s
}

// Close unsubscribes everything in the group.
func (g *Group) Close() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

// Len returns the number of subscriptions held.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}
