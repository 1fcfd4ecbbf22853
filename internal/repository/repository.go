package repository

import (
	"context"

	"github.com/utafrali/Planto/internal/domain"
)

// PlantFilter selects a page of plants. An empty Category matches all.
type PlantFilter struct {
	Category string
	Offset   int
	Limit    int
}

// PlantRepository defines plant persistence operations.
type PlantRepository interface {
	// List returns one page of plants in insertion order and the total number
	// of plants matching the filter.
	List(ctx context.Context, filter PlantFilter) ([]domain.Plant, int64, error)

	// ListFeatured returns up to limit plants flagged as featured.
	ListFeatured(ctx context.Context, limit int) ([]domain.Plant, error)

	// ListTrendy returns up to limit plants flagged as trendy.
	ListTrendy(ctx context.Context, limit int) ([]domain.Plant, error)

	// GetByID retrieves a plant by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Plant, error)

	// Create inserts a plant and assigns its ID.
	Create(ctx context.Context, plant *domain.Plant) error

	// DeleteAll removes every plant and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
}

// ReviewRepository defines review persistence operations.
type ReviewRepository interface {
	// ListLatest returns up to limit reviews, newest first.
	ListLatest(ctx context.Context, limit int) ([]domain.Review, error)

	// ListHighlighted returns up to limit highlighted reviews.
	ListHighlighted(ctx context.Context, limit int) ([]domain.Review, error)

	// Create inserts a review and assigns its ID.
	Create(ctx context.Context, review *domain.Review) error

	// DeleteAll removes every review and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	// Create inserts a user. A duplicate email yields an ALREADY_EXISTS error.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Store groups the repositories of one storage backend.
type Store struct {
	Plants  PlantRepository
	Reviews ReviewRepository
	Users   UserRepository
}
