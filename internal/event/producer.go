package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/Planto/internal/domain"
	pkgkafka "github.com/utafrali/Planto/pkg/kafka"
	"github.com/utafrali/Planto/pkg/logger"
)

// Kafka topics for storefront domain events.
var (
	TopicUserRegistered   = pkgkafka.Topic("user", "registered")
	TopicPlantCreated     = pkgkafka.Topic("plant", "created")
	TopicReviewCreated    = pkgkafka.Topic("review", "created")
	TopicCartUpdated      = pkgkafka.Topic("cart", "updated")
	TopicCartCleared      = pkgkafka.Topic("cart", "cleared")
	TopicFavoritesUpdated = pkgkafka.Topic("favorites", "updated")
)

// Aggregate types.
const (
	AggregateTypeUser      = "user"
	AggregateTypePlant     = "plant"
	AggregateTypeReview    = "review"
	AggregateTypeCart      = "cart"
	AggregateTypeFavorites = "favorites"
)

// Source identifies events published by this service.
const Source = "planto-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// PlantCreatedData is the payload for a plant.created event.
type PlantCreatedData struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	IsFeatured bool     `json:"isFeatured"`
	IsTrendy   bool     `json:"isTrendy"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID          string  `json:"id"`
	UserName    string  `json:"userName"`
	Rating      float64 `json:"rating"`
	Highlighted bool    `json:"highlighted"`
}

// CartUpdatedData is the payload for a cart.updated event. Quantity is the
// line's quantity after the change; zero means the line was removed.
type CartUpdatedData struct {
	UserID   string  `json:"userId"`
	Action   string  `json:"action"`
	LineKey  string  `json:"lineKey"`
	Quantity int     `json:"quantity"`
	TotalQty int     `json:"totalQty"`
	Subtotal float64 `json:"subtotal"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID       string `json:"userId"`
	RemovedLines int    `json:"removedLines"`
}

// FavoritesUpdatedData is the payload for a favorites.updated event.
type FavoritesUpdatedData struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId,omitempty"`
	Favorited bool   `json:"favorited"`
	Count     int    `json:"count"`
}

// Producer publishes storefront domain events to Kafka. A Producer built
// over a nil kafka producer drops every event.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
}

// PublishPlantCreated publishes a plant.created event.
func (p *Producer) PublishPlantCreated(ctx context.Context, plant *domain.Plant) error {
	return p.publish(ctx, TopicPlantCreated, plant.ID, AggregateTypePlant, PlantCreatedData{
		ID:         plant.ID,
		Name:       plant.Name,
		Category:   plant.Category,
		Price:      plant.Price,
		IsFeatured: plant.IsFeatured,
		IsTrendy:   plant.IsTrendy,
	})
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, review.ID, AggregateTypeReview, ReviewCreatedData{
		ID:          review.ID,
		UserName:    review.UserName,
		Rating:      review.Rating,
		Highlighted: review.Highlighted,
	})
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, data CartUpdatedData) error {
	return p.publish(ctx, TopicCartUpdated, data.UserID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string, removed int) error {
	return p.publish(ctx, TopicCartCleared, userID, AggregateTypeCart, CartClearedData{
		UserID:       userID,
		RemovedLines: removed,
	})
}

// PublishFavoritesUpdated publishes a favorites.updated event.
func (p *Producer) PublishFavoritesUpdated(ctx context.Context, data FavoritesUpdatedData) error {
	return p.publish(ctx, TopicFavoritesUpdated, data.UserID, AggregateTypeFavorites, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
