// Package bus is the notification bus that tells independent views that
// backend-held data changed.
//
// It is a live broadcast, not a queue: Publish reaches only the handlers
// subscribed at that instant, and a view mounted a moment later relies on
// its own mount-time fetch.
//
//	sub := b.Subscribe(bus.CartChanged, func() {
//	    header.reloadCount()
//	})
//	defer sub.Unsubscribe()
//
//	// after a successful cart mutation
//	b.Publish(bus.CartChanged)
//
// Views that hold several subscriptions collect them in a Group and close
// it on unmount, so no handler fires on a torn-down view.
package bus
