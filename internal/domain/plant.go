package domain

import "time"

// Plant is a catalog product. Price is nil when the plant has no listed price.
type Plant struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Subtitle    string    `json:"subtitle,omitempty"`
	Description string    `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	ImageURL    string    `json:"imageUrl"`
	Rating      float64   `json:"rating"`
	IsFeatured  bool      `json:"isFeatured"`
	IsTrendy    bool      `json:"isTrendy"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Rating bounds shared by plants and reviews.
const (
	MinRating = 0
	MaxRating = 5
)
