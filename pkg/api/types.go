package api

import "time"

// Product is a catalog entry.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
	Stock       int      `json:"stock"`
	Rating      float64  `json:"rating"`
	Reviews     []Review `json:"reviews"`
	Tags        []string `json:"tags"`
}

// Review is a customer review attached to a product.
type Review struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// CartItem is one line of a cart or order.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

// Cart is the backend's authoritative cart. Totals are always taken from
// the backend, never recomputed locally.
type Cart struct {
	UserID string     `json:"userId,omitempty"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
}

// ItemCount returns the sum of item quantities, as shown on the cart badge.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Order is a placed order. Status is an open string; see views.StatusDisplay.
type Order struct {
	OrderID       string     `json:"orderId"`
	UserID        string     `json:"userId,omitempty"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	Items         []CartItem `json:"items"`
	Total         float64    `json:"total"`
	Status        string     `json:"status"`
	Timestamp     time.Time  `json:"timestamp"`
}

// WishlistItem references a product saved by a user.
type WishlistItem struct {
	ProductID string    `json:"productId"`
	AddedAt   time.Time `json:"addedAt"`
}

// PriceRange bounds a user's preferred prices.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Preferences holds a user's shopping preferences.
type Preferences struct {
	FavoriteCategories []string   `json:"favoriteCategories"`
	PriceRange         PriceRange `json:"priceRange"`
}

// User is the profile of the authenticated user.
type User struct {
	UserID      string         `json:"userId"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Wishlist    []WishlistItem `json:"wishlist"`
	Preferences Preferences    `json:"preferences"`
}

// Clone returns a deep copy so callers cannot mutate session-owned state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Wishlist = append([]WishlistItem(nil), u.Wishlist...)
	c.Preferences.FavoriteCategories = append([]string(nil), u.Preferences.FavoriteCategories...)
	return &c
}

// AuthResult is returned by login and signup.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ChatReply is the assistant's answer to a chat message.
type ChatReply struct {
	Message string `json:"message"`
}

// Analytics summarizes a user's activity.
type Analytics struct {
	Cart struct {
		ItemCount int     `json:"itemCount"`
		Total     float64 `json:"total"`
	} `json:"cart"`
	Orders struct {
		TotalOrders       int     `json:"totalOrders"`
		TotalSpent        float64 `json:"totalSpent"`
		AverageOrderValue float64 `json:"averageOrderValue"`
	} `json:"orders"`
	RecentActivity struct {
		LastOrder   *Order     `json:"lastOrder"`
		ItemsInCart []CartItem `json:"itemsInCart"`
	} `json:"recentActivity"`
}

// ProductFilter narrows a product listing. Empty fields are omitted.
type ProductFilter struct {
	Category string
	Sort     string
}

// ReviewInput is the body of a new product review.
type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
