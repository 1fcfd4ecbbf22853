// Package service holds the storefront's business logic. Services depend on
// repository interfaces and never on HTTP types.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/Planto/internal/cache"
	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/internal/repository"
	"github.com/utafrali/Planto/pkg/pagination"
	"github.com/utafrali/Planto/pkg/slug"
	"github.com/utafrali/Planto/pkg/validator"
)

// Catalog list limits.
const (
	DefaultPlantPageLimit = 6
	DefaultFeaturedLimit  = 5
	DefaultTrendyLimit    = 5
	MaxListLimit          = 100
)

// CreatePlantInput holds the parameters for adding a plant to the catalog.
type CreatePlantInput struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Subtitle    string   `json:"subtitle" validate:"max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	ImageURL    string   `json:"imageUrl" validate:"required,url"`
	Rating      float64  `json:"rating" validate:"gte=0,lte=5"`
	IsFeatured  bool     `json:"isFeatured"`
	IsTrendy    bool     `json:"isTrendy"`
	Category    string   `json:"category" validate:"max=100"`
}

// CatalogService serves the plant catalog through the read-through cache.
type CatalogService struct {
	plants repository.PlantRepository
	cache  *cache.Cache
	events EventPublisher
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(plants repository.PlantRepository, c *cache.Cache, events EventPublisher, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		plants: plants,
		cache:  c,
		events: events,
		logger: logger,
	}
}

// ListPlants returns one page of plants. The category is matched by its slug,
// so "Indoor Plants" and "indoor-plants" select the same plants.
func (s *CatalogService) ListPlants(ctx context.Context, params pagination.Params, category string) (pagination.Page[domain.Plant], error) {
	if params.Page < 1 {
		params.Page = 1
	}
	params.Limit = clampLimit(params.Limit, DefaultPlantPageLimit)
	category = slug.Generate(category)

	key := cache.Key("plants", "page", strconv.Itoa(params.Page), strconv.Itoa(params.Limit), category)
	return cache.GetOrLoad(ctx, s.cache, key, func(ctx context.Context) (pagination.Page[domain.Plant], error) {
		plants, total, err := s.plants.List(ctx, repository.PlantFilter{
			Category: category,
			Offset:   params.Offset(),
			Limit:    params.Limit,
		})
		if err != nil {
			return pagination.Page[domain.Plant]{}, fmt.Errorf("list plants: %w", err)
		}
		return pagination.NewPage(plants, int(total), params), nil
	})
}

// Featured returns up to limit featured plants.
func (s *CatalogService) Featured(ctx context.Context, limit int) ([]domain.Plant, error) {
	limit = clampLimit(limit, DefaultFeaturedLimit)
	key := cache.Key("plants", "featured", strconv.Itoa(limit))
	return cache.GetOrLoad(ctx, s.cache, key, func(ctx context.Context) ([]domain.Plant, error) {
		plants, err := s.plants.ListFeatured(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("list featured plants: %w", err)
		}
		return plants, nil
	})
}

// Trendy returns up to limit trendy plants.
func (s *CatalogService) Trendy(ctx context.Context, limit int) ([]domain.Plant, error) {
	limit = clampLimit(limit, DefaultTrendyLimit)
	key := cache.Key("plants", "trendy", strconv.Itoa(limit))
	return cache.GetOrLoad(ctx, s.cache, key, func(ctx context.Context) ([]domain.Plant, error) {
		plants, err := s.plants.ListTrendy(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("list trendy plants: %w", err)
		}
		return plants, nil
	})
}

// GetPlant retrieves a single plant.
func (s *CatalogService) GetPlant(ctx context.Context, id string) (*domain.Plant, error) {
	return s.plants.GetByID(ctx, id)
}

// CreatePlant validates and stores a plant, then announces it and drops the
// cached catalog.
func (s *CatalogService) CreatePlant(ctx context.Context, input CreatePlantInput) (*domain.Plant, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	plant := &domain.Plant{
		Name:        input.Name,
		Subtitle:    input.Subtitle,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Rating:      input.Rating,
		IsFeatured:  input.IsFeatured,
		IsTrendy:    input.IsTrendy,
		Category:    slug.Generate(input.Category),
	}
	if err := s.plants.Create(ctx, plant); err != nil {
		return nil, fmt.Errorf("create plant: %w", err)
	}

	s.cache.InvalidateCatalog(ctx)
	if err := s.events.PublishPlantCreated(ctx, plant); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish plant.created event",
			slog.String("plant_id", plant.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "plant created",
		slog.String("plant_id", plant.ID),
		slog.String("name", plant.Name),
	)
	return plant, nil
}

// ResetPlants removes every plant and drops the cached catalog.
func (s *CatalogService) ResetPlants(ctx context.Context) (int64, error) {
	n, err := s.plants.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset plants: %w", err)
	}
	s.cache.InvalidateCatalog(ctx)
	return n, nil
}

// clampLimit applies def to non-positive limits and caps at MaxListLimit.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, MaxListLimit)
}
