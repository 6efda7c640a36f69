package snapshot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/middleware"
)

// Notifier shows transient messages. *toast.Queue implements it.
type Notifier interface {
	Success(message string) string
	Error(message string) string
}

// Reconciler carries what every mutation needs after the backend answers:
// somewhere to publish and somewhere to show messages.
type Reconciler struct {
	events bus.Publisher
	toasts Notifier
	logger *slog.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReconciler creates a Reconciler. toasts may be nil.
func NewReconciler(events bus.Publisher, toasts Notifier, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		events: events,
		toasts: toasts,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Action describes one mutation.
type Action[T any] struct {
	// Name labels metrics and logs ("add_to_cart").
	Name string

	// Event is published once after a successful call. Empty publishes nothing.
	Event bus.Event

	// Success, when set, is shown after a successful call.
	Success string

	// Fallback is shown when a failed call carries no backend message.
	Fallback string

	// Call performs the mutation and returns the backend's new state.
	Call func(ctx context.Context) (T, error)
}

// Mutate runs a mutation and reconciles local state with the result.
//
// On success the response replaces snap (if snap is non-nil and not
// disposed), a.Event is published exactly once and the success message is
// shown. On failure snap is untouched, nothing is published and the error
// is shown, except for an expired session which is dropped silently.
func Mutate[T any](ctx context.Context, r *Reconciler, snap *Snapshot[T], a Action[T]) (T, error) {
	v, err := a.Call(ctx)
	if err != nil {
		var zero T
		middleware.RecordMutation(a.Name, "failure")
		r.Report(err, a.Fallback)
		return zero, err
	}

	if snap != nil && !snap.Replace(v) {
		r.logger.Debug("mutation result for disposed view dropped", "action", a.Name)
	}
	if a.Event != "" && r.events != nil {
		r.events.Publish(a.Event)
	}
	if a.Success != "" && r.toasts != nil {
		r.toasts.Success(a.Success)
	}
	middleware.RecordMutation(a.Name, "success")
	return v, nil
}

// Report shows err to the user as an error message. An expired session is
// logged only; the session manager has already signed the user out.
func (r *Reconciler) Report(err error, fallback string) {
	if err == nil {
		return
	}
	if api.IsSessionExpired(err) {
		r.logger.Debug("call rejected: session expired", "error", err)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	r.logger.Debug("call failed", "error", err)
	if r.toasts != nil {
		r.toasts.Error(api.Message(err, fallback))
	}
}

// Notify shows a plain success message.
func (r *Reconciler) Notify(message string) {
	if r.toasts != nil {
		r.toasts.Success(message)
	}
}

// Warn shows message as an error without an underlying error value.
func (r *Reconciler) Warn(message string) {
	if r.toasts != nil {
		r.toasts.Error(message)
	}
}
