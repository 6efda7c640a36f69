// Package snapshot holds per-view copies of backend data and the
// mutate-then-reconcile helper that updates them.
//
// A view keeps one Snapshot per data set it renders. Loads and mutation
// responses replace it wholesale:
//
//	cart := snapshot.New[*api.Cart]()
//	_ = cart.Load(ctx, client.Cart)
//
//	_, err := snapshot.Mutate(ctx, rec, cart, snapshot.Action[*api.Cart]{
//	    Name:     "remove_from_cart",
//	    Event:    bus.CartChanged,
//	    Fallback: "Failed to remove item",
//	    Call: func(ctx context.Context) (*api.Cart, error) {
//	        return client.RemoveFromCart(ctx, id)
//	    },
//	})
//
// Nothing is applied before the backend answers, so a failed mutation
// needs no rollback.
package snapshot
