package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/Planto/internal/cache"
	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/internal/repository"
	"github.com/utafrali/Planto/pkg/validator"
)

// Review list limits.
const (
	DefaultReviewLimit    = 6
	DefaultHighlightLimit = 3
)

// CreateReviewInput holds the parameters for adding a testimonial.
type CreateReviewInput struct {
	UserName    string  `json:"userName" validate:"required,max=100"`
	AvatarURL   string  `json:"avatarUrl" validate:"required,url"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	Text        string  `json:"text" validate:"required,max=2000"`
	Highlighted bool    `json:"highlighted"`
}

// ReviewService serves customer reviews.
type ReviewService struct {
	reviews repository.ReviewRepository
	cache   *cache.Cache
	events  EventPublisher
	logger  *slog.Logger
}

// NewReviewService creates a new review service. cache may be nil.
func NewReviewService(reviews repository.ReviewRepository, c *cache.Cache, events EventPublisher, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		cache:   c,
		events:  events,
		logger:  logger,
	}
}

// List returns up to limit reviews, newest first.
func (s *ReviewService) List(ctx context.Context, limit int) ([]domain.Review, error) {
	limit = clampLimit(limit, DefaultReviewLimit)
	key := cache.Key("reviews", "latest", strconv.Itoa(limit))
	return cache.GetOrLoad(ctx, s.cache, key, func(ctx context.Context) ([]domain.Review, error) {
		reviews, err := s.reviews.ListLatest(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("list reviews: %w", err)
		}
		return reviews, nil
	})
}

// Highlighted returns up to limit highlighted reviews.
func (s *ReviewService) Highlighted(ctx context.Context, limit int) ([]domain.Review, error) {
	limit = clampLimit(limit, DefaultHighlightLimit)
	key := cache.Key("reviews", "highlight", strconv.Itoa(limit))
	return cache.GetOrLoad(ctx, s.cache, key, func(ctx context.Context) ([]domain.Review, error) {
		reviews, err := s.reviews.ListHighlighted(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("list highlighted reviews: %w", err)
		}
		return reviews, nil
	})
}

// CreateReview validates and stores a review.
func (s *ReviewService) CreateReview(ctx context.Context, input CreateReviewInput) (*domain.Review, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	review := &domain.Review{
		UserName:    input.UserName,
		AvatarURL:   input.AvatarURL,
		Rating:      input.Rating,
		Text:        input.Text,
		Highlighted: input.Highlighted,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.cache.InvalidateCatalog(ctx)
	if err := s.events.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
	return review, nil
}

// ResetReviews removes every review and drops the cached catalog.
func (s *ReviewService) ResetReviews(ctx context.Context) (int64, error) {
	n, err := s.reviews.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset reviews: %w", err)
	}
	s.cache.InvalidateCatalog(ctx)
	return n, nil
}
