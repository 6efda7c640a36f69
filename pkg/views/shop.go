package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/snapshot"
)

// AllCategories selects every category in the shop filter.
const AllCategories = "all"

// ShopPage is the product listing. Anonymous users can browse; signed-in
// users also get their wishlist markers and AI recommendations.
type ShopPage struct {
	page
	productActions

	products        *snapshot.Snapshot[[]api.Product]
	recommendations *snapshot.Snapshot[[]api.Product]

	filterMu sync.Mutex
	filter   api.ProductFilter
}

// NewShopPage creates an unmounted shop page sorted by name.
func NewShopPage(d Deps) *ShopPage {
	s := &ShopPage{filter: api.ProductFilter{Sort: "name"}}
	s.init(d)
	s.productActions = newProductActions(&s.page)
	s.products = track(&s.page, snapshot.New[[]api.Product]())
	s.recommendations = track(&s.page, snapshot.New[[]api.Product]())
	return s
}

// Mount waits for hydration, loads the page and reloads it whenever the
// session changes.
func (s *ShopPage) Mount(ctx context.Context) error {
	s.begin(ctx)
	if err := s.deps.Session.Wait(ctx); err != nil {
		return err
	}
	s.on(bus.SessionChanged, func() {
		if err := s.Load(s.context()); err != nil {
			s.deps.logger().Debug("shop: reload failed", "error", err)
		}
	})
	return s.Load(ctx)
}

// Load fetches the products for the current filter. When signed in, the
// wishlist ids and recommendations are fetched concurrently; their
// failures are logged and do not fail the page.
func (s *ShopPage) Load(ctx context.Context) error {
	filter := s.Filter()

	var g errgroup.Group
	var productsErr error
	g.Go(func() error {
		productsErr = s.products.Load(ctx, func(ctx context.Context) ([]api.Product, error) {
			return s.deps.API.Products(ctx, filter)
		})
		return nil
	})

	if s.authenticated() {
		userID := s.userID()
		g.Go(func() error {
			return s.loadWishlistIDs(ctx)
		})
		g.Go(func() error {
			return s.recommendations.Load(ctx, func(ctx context.Context) ([]api.Product, error) {
				return s.deps.API.Recommendations(ctx, userID)
			})
		})
	} else {
		s.wishlist.Replace(nil)
		s.recommendations.Replace(nil)
	}

	if err := g.Wait(); err != nil {
		s.deps.logger().Debug("shop: failed to load user data", "error", err)
	}
	return productsErr
}

// Filter returns the current category and sort.
func (s *ShopPage) Filter() api.ProductFilter {
	s.filterMu.Lock()
	defer s.filterMu.Unlock()
	return s.filter
}

// SetCategory changes the category filter and reloads. AllCategories or ""
// clears it.
func (s *ShopPage) SetCategory(ctx context.Context, category string) error {
	if strings.EqualFold(category, AllCategories) {
		category = ""
	}
	s.filterMu.Lock()
	s.filter.Category = category
	s.filterMu.Unlock()
	return s.Load(ctx)
}

// SetSort changes the sort order ("name", "price-low", "price-high",
// "rating") and reloads.
func (s *ShopPage) SetSort(ctx context.Context, sort string) error {
	s.filterMu.Lock()
	s.filter.Sort = sort
	s.filterMu.Unlock()
	return s.Load(ctx)
}

// Products returns the listed products.
func (s *ShopPage) Products() []api.Product {
	return s.products.Data()
}

// Recommendations returns the AI picks for the signed-in user.
func (s *ShopPage) Recommendations() []api.Product {
	return s.recommendations.Data()
}

// State returns the load state of the listing.
func (s *ShopPage) State() snapshot.State {
	return s.products.State()
}

// AddToCart puts one unit in the cart. Anonymous users are told to log in
// and redirected.
func (s *ShopPage) AddToCart(ctx context.Context, productID string) error {
	return s.addToCart(ctx, productID, 1, msgAddedToCart)
}

// ProductPage shows one product with its reviews.
type ProductPage struct {
	page
	productActions

	id      string
	product *snapshot.Snapshot[*api.Product]
}

// NewProductPage creates an unmounted page for product id.
func NewProductPage(d Deps, id string) *ProductPage {
	p := &ProductPage{id: id}
	p.init(d)
	p.productActions = newProductActions(&p.page)
	p.product = track(&p.page, snapshot.New[*api.Product]())
	return p
}

// Mount loads the product, and the wishlist when signed in.
func (p *ProductPage) Mount(ctx context.Context) error {
	p.begin(ctx)
	if err := p.deps.Session.Wait(ctx); err != nil {
		return err
	}
	p.on(bus.SessionChanged, func() {
		if err := p.loadWishlistIDs(p.context()); err != nil {
			p.deps.logger().Debug("product: wishlist reload failed", "error", err)
		}
	})

	var g errgroup.Group
	g.Go(func() error {
		return p.product.Load(ctx, func(ctx context.Context) (*api.Product, error) {
			return p.deps.API.Product(ctx, p.id)
		})
	})
	g.Go(func() error {
		if err := p.loadWishlistIDs(ctx); err != nil {
			p.deps.logger().Debug("product: failed to check wishlist", "error", err)
		}
		return nil
	})
	err := g.Wait()
	if err != nil {
		p.deps.Reconciler.Report(err, "Failed to load product")
	}
	return err
}

// Product returns the loaded product, or nil.
func (p *ProductPage) Product() *api.Product {
	return p.product.Data()
}

// State returns the load state of the product.
func (p *ProductPage) State() snapshot.State {
	return p.product.State()
}

// AddToCart puts quantity units in the cart.
func (p *ProductPage) AddToCart(ctx context.Context, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	return p.addToCart(ctx, p.id, quantity, fmt.Sprintf("Added %d item(s) to cart!", quantity))
}

// AddToWishlist saves this product.
func (p *ProductPage) AddToWishlist(ctx context.Context) error {
	return p.productActions.AddToWishlist(ctx, p.id)
}

// InWishlist reports whether this product is saved.
func (p *ProductPage) InWishlist() bool {
	return p.productActions.InWishlist(p.id)
}

// AddReview posts a review and replaces the product with the backend's
// updated copy, which carries the new rating.
func (p *ProductPage) AddReview(ctx context.Context, rating int, comment string) error {
	if !p.requireLogin("Please login to write a review") {
		return api.ErrAnonymous
	}
	_, err := snapshot.Mutate(ctx, p.deps.Reconciler, p.product, snapshot.Action[*api.Product]{
		Name:     "add_review",
		Success:  "Review submitted!",
		Fallback: "Failed to submit review",
		Call: func(ctx context.Context) (*api.Product, error) {
			return p.deps.API.AddReview(ctx, p.id, api.ReviewInput{Rating: rating, Comment: comment})
		},
	})
	return err
}

// SearchPage runs AI product search.
type SearchPage struct {
	page
	productActions

	queryMu sync.Mutex
	query   string
	results *snapshot.Snapshot[[]api.Product]
}

// NewSearchPage creates an unmounted search page.
func NewSearchPage(d Deps) *SearchPage {
	s := &SearchPage{}
	s.init(d)
	s.productActions = newProductActions(&s.page)
	s.results = track(&s.page, snapshot.New[[]api.Product]())
	return s
}

// Mount loads the wishlist markers and, when query is not empty, runs the
// search.
func (s *SearchPage) Mount(ctx context.Context, query string) error {
	s.begin(ctx)
	if err := s.deps.Session.Wait(ctx); err != nil {
		return err
	}
	if err := s.loadWishlistIDs(ctx); err != nil {
		s.deps.logger().Debug("search: failed to load wishlist", "error", err)
	}
	return s.Search(ctx, query)
}

// Search runs query. Blank queries are ignored.
func (s *SearchPage) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	s.queryMu.Lock()
	s.query = query
	s.queryMu.Unlock()

	err := s.results.Load(ctx, func(ctx context.Context) ([]api.Product, error) {
		return s.deps.API.Search(ctx, query)
	})
	if err != nil {
		s.deps.Reconciler.Report(err, "Failed to perform search")
	}
	return err
}

// Query returns the last query searched for.
func (s *SearchPage) Query() string {
	s.queryMu.Lock()
	defer s.queryMu.Unlock()
	return s.query
}

// Results returns the matching products.
func (s *SearchPage) Results() []api.Product {
	return s.results.Data()
}

// State returns the load state of the results.
func (s *SearchPage) State() snapshot.State {
	return s.results.State()
}

// AddToCart puts one unit of a result in the cart.
func (s *SearchPage) AddToCart(ctx context.Context, productID string) error {
	return s.addToCart(ctx, productID, 1, msgAddedToCart)
}
