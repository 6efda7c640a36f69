package storefronttest

import "github.com/nexora-dev/storefront/pkg/api"

// DefaultProducts returns the seed catalog: a handful of products across
// three categories with known prices and stock.
func DefaultProducts() []api.Product {
	return []api.Product{
		{
			ID:          "p1",
			Name:        "Wireless Headphones",
			Description: "Over-ear noise cancelling headphones with 30h battery",
			Price:       199.99,
			Image:       "/images/headphones.jpg",
			Category:    "electronics",
			Stock:       15,
			Rating:      4.6,
			Reviews:     []api.Review{},
			Tags:        []string{"audio", "bluetooth", "travel"},
		},
		{
			ID:          "p2",
			Name:        "Mechanical Keyboard",
			Description: "Hot-swappable 75% keyboard with tactile switches",
			Price:       129.5,
			Image:       "/images/keyboard.jpg",
			Category:    "electronics",
			Stock:       8,
			Rating:      4.4,
			Reviews:     []api.Review{},
			Tags:        []string{"desk", "typing"},
		},
		{
			ID:          "p3",
			Name:        "Running Shoes",
			Description: "Lightweight trainers for road running",
			Price:       89,
			Image:       "/images/shoes.jpg",
			Category:    "sports",
			Stock:       20,
			Rating:      4.2,
			Reviews:     []api.Review{},
			Tags:        []string{"running", "fitness"},
		},
		{
			ID:          "p4",
			Name:        "Yoga Mat",
			Description: "Non-slip 6mm mat with carry strap",
			Price:       35,
			Image:       "/images/yoga-mat.jpg",
			Category:    "sports",
			Stock:       3,
			Rating:      4.8,
			Reviews:     []api.Review{},
			Tags:        []string{"fitness", "home"},
		},
		{
			ID:          "p5",
			Name:        "Ceramic Pour-Over Set",
			Description: "Dripper, carafe and filters for slow coffee",
			Price:       48.75,
			Image:       "/images/pour-over.jpg",
			Category:    "home",
			Stock:       12,
			Rating:      4.1,
			Reviews:     []api.Review{},
			Tags:        []string{"coffee", "kitchen"},
		},
		{
			ID:          "p6",
			Name:        "Linen Throw Blanket",
			Description: "Stonewashed linen throw, 130x170cm",
			Price:       64,
			Image:       "/images/throw.jpg",
			Category:    "home",
			Stock:       0,
			Rating:      3.9,
			Reviews:     []api.Review{},
			Tags:        []string{"bedroom", "living room"},
		},
	}
}
