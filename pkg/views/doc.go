// Package views holds the storefront's headless view-models.
//
// A view reads the session, fetches its data into snapshots and runs
// mutations through snapshot.Mutate. Views never hold data longer than
// they are mounted: Unmount drops the view's bus subscriptions, disposes
// its snapshots and cancels its requests.
//
// Protected views (cart, checkout, wishlist, orders) return a Decision
// from Mount:
//
//	page := views.NewCartPage(deps)
//	switch d, err := page.Mount(ctx); {
//	case err != nil:
//	    // show page.State() / err
//	case d == views.RedirectLogin:
//	    // navigate to page.Redirect()
//	}
//	defer page.Unmount()
//
// The shop, product, search and chat views are open to anonymous users;
// their add-to-cart and add-to-wishlist actions ask for a login instead.
package views
