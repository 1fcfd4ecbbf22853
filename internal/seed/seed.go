// Package seed loads the starter catalog.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/Planto/internal/service"
)

func price(v float64) *float64 { return &v }

// Plants is the starter plant catalog.
func Plants() []service.CreatePlantInput {
	return []service.CreatePlantInput{
		{Name: "Calathea plant", Subtitle: "Trendy House Plant", ImageURL: "https://placehold.co/540x680/png", Rating: 5, IsFeatured: true, Price: price(39.9)},
		{Name: "Fiddle Leaf Fig", Subtitle: "Indoor Beauty", ImageURL: "https://placehold.co/540x680/png?text=Fig", Rating: 4, IsFeatured: true, Price: price(49.0)},
		{Name: "Snake Plant", Subtitle: "Air Purifier", ImageURL: "https://placehold.co/540x680/png?text=Snake", Rating: 5, IsFeatured: true, Price: price(29.9)},
	}
}

// Reviews is the starter set of reviews.
func Reviews() []service.CreateReviewInput {
	return []service.CreateReviewInput{
		{
			UserName:    "Alena Patel",
			AvatarURL:   "https://i.pravatar.cc/80?img=5",
			Rating:      5,
			Text:        "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt...",
			Highlighted: true,
		},
	}
}

// Result counts what a seed run removed and created.
type Result struct {
	PlantsRemoved  int64
	ReviewsRemoved int64
	PlantsCreated  int
	ReviewsCreated int
}

// Run replaces all plants and reviews with the starter catalog. Writes go
// through the services so the cache is invalidated and events are published.
func Run(ctx context.Context, catalog *service.CatalogService, reviews *service.ReviewService, logger *slog.Logger) (Result, error) {
	var res Result
	var err error

	if res.PlantsRemoved, err = catalog.ResetPlants(ctx); err != nil {
		return res, err
	}
	if res.ReviewsRemoved, err = reviews.ResetReviews(ctx); err != nil {
		return res, err
	}

	for _, in := range Plants() {
		if _, err := catalog.CreatePlant(ctx, in); err != nil {
			return res, fmt.Errorf("seed plant %q: %w", in.Name, err)
		}
		res.PlantsCreated++
	}
	for _, in := range Reviews() {
		if _, err := reviews.CreateReview(ctx, in); err != nil {
			return res, fmt.Errorf("seed review by %q: %w", in.UserName, err)
		}
		res.ReviewsCreated++
	}

	logger.InfoContext(ctx, "catalog seeded",
		slog.Int64("plants_removed", res.PlantsRemoved),
		slog.Int64("reviews_removed", res.ReviewsRemoved),
		slog.Int("plants_created", res.PlantsCreated),
		slog.Int("reviews_created", res.ReviewsCreated),
	)
	return res, nil
}
