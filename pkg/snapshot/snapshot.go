package snapshot

import (
	"context"
	"fmt"
	"sync"
)

// State is the load state of a snapshot.
type State int

const (
	Pending State = iota // Created, nothing requested yet
	Loading              // Load in progress
	Ready                // Data replaced from a backend response
	Error                // Last load failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is a view's transient copy of backend data. It is only ever
// replaced wholesale, never edited in place. Once disposed it ignores all
// further writes, so late responses for an unmounted view are dropped.
type Snapshot[T any] struct {
	mu       sync.Mutex
	state    State
	data     T
	err      error
	loadID   uint64
	disposed bool
	onChange func()
}

// New creates an empty snapshot in the Pending state.
func New[T any]() *Snapshot[T] {
	return &Snapshot[T]{}
}

// OnChange registers fn to be called after every accepted state change.
// fn runs without the snapshot lock held.
func (s *Snapshot[T]) OnChange(fn func()) *Snapshot[T] {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
	return s
}

// Load calls fetch and replaces the data with its result. If another Load
// or Replace happens while fetch runs, this result is discarded.
func (s *Snapshot[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.loadID++
	id := s.loadID
	s.state = Loading
	s.err = nil
	notify := s.onChange
	s.mu.Unlock()
	if notify != nil {
		notify()
	}

	v, err := fetch(ctx)

	s.mu.Lock()
	if s.disposed || s.loadID != id {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.state = Error
		s.err = err
	} else {
		s.state = Ready
		s.data = v
	}
	notify = s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return err
}

// Replace sets the data to v and marks the snapshot Ready. It reports
// whether v was accepted; a disposed snapshot rejects it.
func (s *Snapshot[T]) Replace(v T) bool {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false
	}
	s.loadID++
	s.state = Ready
	s.data = v
	s.err = nil
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return true
}

// Dispose detaches the snapshot from its view.
func (s *Snapshot[T]) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.onChange = nil
	s.mu.Unlock()
}

// Disposed reports whether Dispose has been called.
func (s *Snapshot[T]) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// State returns the current load state.
func (s *Snapshot[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsLoading reports whether no load has finished yet.
func (s *Snapshot[T]) IsLoading() bool {
	st := s.State()
	return st == Pending || st == Loading
}

// IsReady reports whether the data came from a successful load.
func (s *Snapshot[T]) IsReady() bool {
	return s.State() == Ready
}

// Data returns the current data, which is the zero value until the first
// successful load.
func (s *Snapshot[T]) Data() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// DataOr returns the data when Ready and fallback otherwise.
func (s *Snapshot[T]) DataOr(fallback T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Ready {
		return s.data
	}
	return fallback
}

// Err returns the error from the last failed load.
func (s *Snapshot[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
