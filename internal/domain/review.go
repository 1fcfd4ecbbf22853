package domain

import "time"

// Review is a customer testimonial shown on the home page.
type Review struct {
	ID          string    `json:"_id"`
	UserName    string    `json:"userName"`
	AvatarURL   string    `json:"avatarUrl"`
	Rating      float64   `json:"rating"`
	Text        string    `json:"text"`
	Highlighted bool      `json:"highlighted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
