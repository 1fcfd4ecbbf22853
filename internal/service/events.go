package service

import (
	"context"

	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/internal/event"
)

// EventPublisher is the subset of *event.Producer the services publish
// through. Publish failures are logged by the caller and never returned.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishPlantCreated(ctx context.Context, plant *domain.Plant) error
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishCartUpdated(ctx context.Context, data event.CartUpdatedData) error
	PublishCartCleared(ctx context.Context, userID string, removed int) error
	PublishFavoritesUpdated(ctx context.Context, data event.FavoritesUpdatedData) error
}
