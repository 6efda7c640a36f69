// Package toast provides transient feedback notifications.
//
// A Queue holds the toasts currently visible. Views push onto it after a
// mutation; a renderer reads Active (or Drain) whenever the bus publishes
// toastsChanged:
//
//	q := toast.NewQueue(toast.WithPublisher(b))
//	b.Subscribe(toast.EventName, func() {
//	    for _, t := range q.Drain() {
//	        fmt.Println(t.Type, t.Message)
//	    }
//	})
//
//	q.Success("Added to cart!")
//	q.WithTitle(toast.TypeSuccess, "Checkout", "Your order has been placed.")
//
// Toasts expire after DefaultDuration (3s) unless pushed with ShowFor.
package toast
