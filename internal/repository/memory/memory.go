// Package memory implements the repositories in process memory. It backs
// local development and tests; contents are lost on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/internal/repository"
	apperrors "github.com/utafrali/Planto/pkg/errors"
)

// NewStore returns empty in-memory repositories.
func NewStore() repository.Store {
	return repository.Store{
		Plants:  NewPlantRepository(),
		Reviews: NewReviewRepository(),
		Users:   NewUserRepository(),
	}
}

// PlantRepository implements repository.PlantRepository in memory.
type PlantRepository struct {
	mu     sync.RWMutex
	plants []domain.Plant
}

// NewPlantRepository creates an empty plant repository.
func NewPlantRepository() *PlantRepository {
	return &PlantRepository{}
}

// List returns one page of plants in insertion order and the total count.
func (r *PlantRepository) List(_ context.Context, filter repository.PlantFilter) ([]domain.Plant, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Plant, 0, len(r.plants))
	for _, p := range r.plants {
		if filter.Category == "" || p.Category == filter.Category {
			matched = append(matched, p)
		}
	}
	return page(matched, filter.Offset, filter.Limit), int64(len(matched)), nil
}

// ListFeatured returns up to limit featured plants.
func (r *PlantRepository) ListFeatured(_ context.Context, limit int) ([]domain.Plant, error) {
	return r.where(limit, func(p domain.Plant) bool { return p.IsFeatured }), nil
}

// ListTrendy returns up to limit trendy plants.
func (r *PlantRepository) ListTrendy(_ context.Context, limit int) ([]domain.Plant, error) {
	return r.where(limit, func(p domain.Plant) bool { return p.IsTrendy }), nil
}

// GetByID retrieves a plant by ID.
func (r *PlantRepository) GetByID(_ context.Context, id string) (*domain.Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plants {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("plant", id)
}

// Create appends plant, assigning a new ID and timestamps.
func (r *PlantRepository) Create(_ context.Context, plant *domain.Plant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if plant.CreatedAt.IsZero() {
		plant.CreatedAt = now
	}
	plant.UpdatedAt = now
	plant.ID = uuid.New().String()
	r.plants = append(r.plants, *plant)
	return nil
}

// DeleteAll removes every plant.
func (r *PlantRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.plants))
	r.plants = nil
	return n, nil
}

func (r *PlantRepository) where(limit int, keep func(domain.Plant) bool) []domain.Plant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Plant, 0)
	for _, p := range r.plants {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// ReviewRepository implements repository.ReviewRepository in memory.
type ReviewRepository struct {
	mu      sync.RWMutex
	reviews []domain.Review
}

// NewReviewRepository creates an empty review repository.
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{}
}

// ListLatest returns up to limit reviews, newest first.
func (r *ReviewRepository) ListLatest(_ context.Context, limit int) ([]domain.Review, error) {
	return r.newest(limit, func(domain.Review) bool { return true }), nil
}

// ListHighlighted returns up to limit highlighted reviews, newest first.
func (r *ReviewRepository) ListHighlighted(_ context.Context, limit int) ([]domain.Review, error) {
	return r.newest(limit, func(rv domain.Review) bool { return rv.Highlighted }), nil
}

// Create appends review, assigning a new ID and timestamps.
func (r *ReviewRepository) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now
	review.ID = uuid.New().String()
	r.reviews = append(r.reviews, *review)
	return nil
}

// DeleteAll removes every review.
func (r *ReviewRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.reviews))
	r.reviews = nil
	return n, nil
}

func (r *ReviewRepository) newest(limit int, keep func(domain.Review) bool) []domain.Review {
	r.mu.RLock()
	out := make([]domain.Review, 0, len(r.reviews))
	// Walk backwards so equal timestamps keep the later insert first.
	for i := len(r.reviews) - 1; i >= 0; i-- {
		if keep(r.reviews[i]) {
			out = append(out, r.reviews[i])
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, 0, limit)
}

// UserRepository implements repository.UserRepository in memory. Emails are
// unique case-insensitively.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

// NewUserRepository creates an empty user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

// Create stores user. A taken email yields ALREADY_EXISTS.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, taken := r.byEmail[email]; taken {
		return apperrors.AlreadyExists("user", "email", email)
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = email

	r.byID[user.ID] = *user
	r.byEmail[email] = user.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return &u, nil
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.NotFound("user", email)
	}
	u := r.byID[id]
	return &u, nil
}

// page slices items to [offset, offset+limit). A non-positive limit means
// no upper bound.
func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return make([]T, 0)
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append(make([]T, 0, end-offset), items[offset:end]...)
}
