package storefronttest

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/nexora-dev/storefront/pkg/api"
)

type authResponse struct {
	Token string   `json:"token"`
	User  api.User `json:"user"`
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil || in.Email == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	b.mu.Lock()
	acct := b.accounts[strings.ToLower(in.Email)]
	b.mu.Unlock()
	if acct == nil || acct.password != in.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeData(w, http.StatusOK, authResponse{Token: b.IssueToken(acct.user.UserID), User: b.profile(acct)})
}

func (b *Backend) signup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil || in.Name == "" || in.Email == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	if len(in.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	b.mu.Lock()
	if _, exists := b.accounts[strings.ToLower(in.Email)]; exists {
		b.mu.Unlock()
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	acct := b.addUserLocked(in.Name, in.Email, in.Password)
	b.mu.Unlock()

	writeData(w, http.StatusCreated, authResponse{Token: b.IssueToken(acct.user.UserID), User: b.profile(acct)})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	b.Revoke(token)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out"})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	writeData(w, http.StatusOK, b.profile(acct))
}

// profile returns acct's user with the wishlist filled in.
func (b *Backend) profile(acct *account) api.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := *acct.user.Clone()
	if u.Wishlist == nil {
		u.Wishlist = []api.WishlistItem{}
	}
	return u
}

func (b *Backend) listProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	b.mu.Lock()
	out := make([]api.Product, 0, len(b.products))
	for _, p := range b.products {
		if category == "" || category == "all" || strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	b.mu.Unlock()

	switch r.URL.Query().Get("sort") {
	case "price-low", "price_asc", "price-asc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "price-high", "price_desc", "price-desc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case "rating":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case "name":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	writeData(w, http.StatusOK, out)
}

func (b *Backend) getProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	p, ok := b.productLocked(chi.URLParam(r, "id"))
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (b *Backend) addReview(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	var in api.ReviewInput
	if err := decode(r, &in); err != nil || in.Rating < 1 || in.Rating > 5 {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.productIndexLocked(chi.URLParam(r, "id"))
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	p := &b.products[idx]
	p.Reviews = append(p.Reviews, api.Review{
		UserID:    acct.user.UserID,
		UserName:  acct.user.Name,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: b.now(),
	})
	sum := 0
	for _, rv := range p.Reviews {
		sum += rv.Rating
	}
	p.Rating = math.Round(float64(sum)/float64(len(p.Reviews))*10) / 10
	writeData(w, http.StatusCreated, *p)
}

func (b *Backend) getCart(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	b.mu.Lock()
	cart := copyCart(b.cartLocked(acct.user.UserID))
	b.mu.Unlock()
	writeData(w, http.StatusOK, cart)
}

type cartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (b *Backend) addToCart(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	var in cartLine
	if err := decode(r, &in); err != nil || in.ProductID == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.productLocked(in.ProductID)
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	cart := b.cartLocked(acct.user.UserID)
	current := 0
	for _, it := range cart.Items {
		if it.ProductID == p.ID {
			current = it.Quantity
		}
	}
	if current+in.Quantity > p.Stock {
		writeError(w, http.StatusBadRequest, "Insufficient stock")
		return
	}
	if current == 0 {
		cart.Items = append(cart.Items, api.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  in.Quantity,
			Image:     p.Image,
		})
	} else {
		setQuantity(cart, p.ID, current+in.Quantity)
	}
	recalc(cart)
	writeData(w, http.StatusOK, copyCart(cart))
}

func (b *Backend) updateCart(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	var in cartLine
	if err := decode(r, &in); err != nil || in.ProductID == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	cart := b.cartLocked(acct.user.UserID)
	if !inCart(cart, in.ProductID) {
		writeError(w, http.StatusNotFound, "Item not in cart")
		return
	}
	if in.Quantity <= 0 {
		removeLine(cart, in.ProductID)
	} else {
		if p, ok := b.productLocked(in.ProductID); ok && in.Quantity > p.Stock {
			writeError(w, http.StatusBadRequest, "Insufficient stock")
			return
		}
		setQuantity(cart, in.ProductID, in.Quantity)
	}
	recalc(cart)
	writeData(w, http.StatusOK, copyCart(cart))
}

func (b *Backend) removeFromCart(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	id := chi.URLParam(r, "productId")

	b.mu.Lock()
	defer b.mu.Unlock()
	cart := b.cartLocked(acct.user.UserID)
	if !inCart(cart, id) {
		writeError(w, http.StatusNotFound, "Item not in cart")
		return
	}
	removeLine(cart, id)
	recalc(cart)
	writeData(w, http.StatusOK, copyCart(cart))
}

func (b *Backend) clearCart(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cart := b.cartLocked(acct.user.UserID)
	cart.Items = []api.CartItem{}
	recalc(cart)
	writeData(w, http.StatusOK, copyCart(cart))
}

func (b *Backend) checkout(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	var in struct {
		CustomerName  string         `json:"customerName"`
		CustomerEmail string         `json:"customerEmail"`
		CartItems     []api.CartItem `json:"cartItems"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid checkout request")
		return
	}
	if in.CustomerName == "" || in.CustomerEmail == "" {
		writeError(w, http.StatusBadRequest, "Name and email are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	cart := b.cartLocked(acct.user.UserID)
	if len(cart.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	for _, it := range cart.Items {
		idx := b.productIndexLocked(it.ProductID)
		if idx < 0 || b.products[idx].Stock < it.Quantity {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Insufficient stock for %s", it.Name))
			return
		}
	}
	for _, it := range cart.Items {
		b.products[b.productIndexLocked(it.ProductID)].Stock -= it.Quantity
	}

	order := api.Order{
		OrderID:       "ORD-" + ulid.Make().String(),
		UserID:        acct.user.UserID,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		Items:         append([]api.CartItem(nil), cart.Items...),
		Total:         cart.Total,
		Status:        "processing",
		Timestamp:     b.now(),
	}
	b.orders[acct.user.UserID] = append(b.orders[acct.user.UserID], order)
	cart.Items = []api.CartItem{}
	recalc(cart)

	writeData(w, http.StatusCreated, order)
}

func (b *Backend) listOrders(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	b.mu.Lock()
	src := b.orders[acct.user.UserID]
	out := make([]api.Order, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	b.mu.Unlock()
	writeData(w, http.StatusOK, out)
}

func (b *Backend) getOrder(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders[acct.user.UserID] {
		if o.OrderID == id {
			writeData(w, http.StatusOK, o)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Order not found")
}

func (b *Backend) getWishlist(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	b.mu.Lock()
	out := b.wishlistLocked(acct.user.UserID)
	b.mu.Unlock()
	writeData(w, http.StatusOK, out)
}

func (b *Backend) addToWishlist(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	var in struct {
		ProductID string `json:"productId"`
	}
	if err := decode(r, &in); err != nil || in.ProductID == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.productLocked(in.ProductID); !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	uid := acct.user.UserID
	for _, id := range b.wishlists[uid] {
		if id == in.ProductID {
			writeError(w, http.StatusConflict, "Product already in wishlist")
			return
		}
	}
	b.wishlists[uid] = append(b.wishlists[uid], in.ProductID)
	acct.user.Wishlist = append(acct.user.Wishlist, api.WishlistItem{ProductID: in.ProductID, AddedAt: b.now()})
	writeData(w, http.StatusOK, b.wishlistLocked(uid))
}

func (b *Backend) removeFromWishlist(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	id := r.URL.Query().Get("productId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	uid := acct.user.UserID
	kept := b.wishlists[uid][:0:0]
	for _, pid := range b.wishlists[uid] {
		if pid != id {
			kept = append(kept, pid)
		}
	}
	b.wishlists[uid] = kept

	items := acct.user.Wishlist[:0:0]
	for _, it := range acct.user.Wishlist {
		if it.ProductID != id {
			items = append(items, it)
		}
	}
	acct.user.Wishlist = items
	writeData(w, http.StatusOK, b.wishlistLocked(uid))
}

func (b *Backend) recommendations(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string `json:"userId"`
	}
	_ = decode(r, &in)

	b.mu.Lock()
	var favorites []string
	if acct := b.byID[in.UserID]; acct != nil {
		favorites = acct.user.Preferences.FavoriteCategories
	}
	candidates := make([]api.Product, 0, len(b.products))
	for _, p := range b.products {
		if len(favorites) == 0 || containsFold(favorites, p.Category) {
			candidates = append(candidates, p)
		}
	}
	b.mu.Unlock()

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Rating > candidates[j].Rating })
	if len(candidates) > 4 {
		candidates = candidates[:4]
	}
	writeData(w, http.StatusOK, candidates)
}

func (b *Backend) search(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Query string `json:"query"`
	}
	if err := decode(r, &in); err != nil || strings.TrimSpace(in.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	terms := strings.Fields(strings.ToLower(in.Query))

	b.mu.Lock()
	out := make([]api.Product, 0)
	for _, p := range b.products {
		text := strings.ToLower(p.Name + " " + p.Description + " " + p.Category + " " + strings.Join(p.Tags, " "))
		for _, term := range terms {
			if strings.Contains(text, term) {
				out = append(out, p)
				break
			}
		}
	}
	b.mu.Unlock()
	writeData(w, http.StatusOK, out)
}

func (b *Backend) chatReply(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string `json:"message"`
		Context string `json:"context"`
	}
	if err := decode(r, &in); err != nil || strings.TrimSpace(in.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	writeData(w, http.StatusOK, api.ChatReply{Message: b.chat(in.Message, in.Context)})
}

func defaultChat(message, _ string) string {
	return fmt.Sprintf("Thanks for asking about %q. Have a look at our top-rated products in the shop.", message)
}

func (b *Backend) analytics(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	uid := r.URL.Query().Get("userId")
	if uid != acct.user.UserID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	cart := b.cartLocked(uid)
	orders := b.orders[uid]

	var a api.Analytics
	a.Cart.ItemCount = cart.ItemCount()
	a.Cart.Total = cart.Total
	a.Orders.TotalOrders = len(orders)
	for _, o := range orders {
		a.Orders.TotalSpent += o.Total
	}
	if len(orders) > 0 {
		a.Orders.AverageOrderValue = a.Orders.TotalSpent / float64(len(orders))
		last := orders[len(orders)-1]
		a.RecentActivity.LastOrder = &last
	}
	a.RecentActivity.ItemsInCart = append([]api.CartItem{}, cart.Items...)
	writeData(w, http.StatusOK, a)
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	if chi.URLParam(r, "id") != acct.user.UserID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	writeData(w, http.StatusOK, b.profile(acct))
}

func (b *Backend) updateUser(w http.ResponseWriter, r *http.Request, acct *account, token string) {
	if chi.URLParam(r, "id") != acct.user.UserID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	var in struct {
		Name        *string          `json:"name"`
		Preferences *api.Preferences `json:"preferences"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	if in.Name != nil && *in.Name != "" {
		acct.user.Name = *in.Name
	}
	if in.Preferences != nil {
		acct.user.Preferences = *in.Preferences
	}
	b.mu.Unlock()
	writeData(w, http.StatusOK, b.profile(acct))
}

func (b *Backend) productIndexLocked(id string) int {
	for i, p := range b.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) productLocked(id string) (api.Product, bool) {
	if i := b.productIndexLocked(id); i >= 0 {
		return b.products[i], true
	}
	return api.Product{}, false
}

func (b *Backend) cartLocked(userID string) *api.Cart {
	cart, ok := b.carts[userID]
	if !ok {
		cart = &api.Cart{UserID: userID, Items: []api.CartItem{}}
		b.carts[userID] = cart
	}
	return cart
}

func (b *Backend) wishlistLocked(userID string) []api.Product {
	out := make([]api.Product, 0, len(b.wishlists[userID]))
	for _, id := range b.wishlists[userID] {
		if p, ok := b.productLocked(id); ok {
			out = append(out, p)
		}
	}
	return out
}

func copyCart(c *api.Cart) api.Cart {
	out := *c
	out.Items = append([]api.CartItem{}, c.Items...)
	return out
}

func inCart(c *api.Cart, productID string) bool {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

func setQuantity(c *api.Cart, productID string, qty int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
		}
	}
}

func removeLine(c *api.Cart, productID string) {
	kept := c.Items[:0:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

func recalc(c *api.Cart) {
	total := 0.0
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	c.Total = math.Round(total*100) / 100
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
