package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/Planto/internal/event"
	"github.com/utafrali/Planto/internal/repository/memory"
	"github.com/utafrali/Planto/internal/service"
	"github.com/utafrali/Planto/pkg/pagination"
)

func TestRun_ReplacesCatalog(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	events := event.NewProducer(nil, logger)
	catalog := service.NewCatalogService(store.Plants, nil, events, logger)
	reviews := service.NewReviewService(store.Reviews, nil, events, logger)

	first, err := Run(ctx, catalog, reviews, logger)
	require.NoError(t, err)
	assert.Equal(t, Result{PlantsCreated: 3, ReviewsCreated: 1}, first)

	second, err := Run(ctx, catalog, reviews, logger)
	require.NoError(t, err)
	assert.Equal(t, int64(3), second.PlantsRemoved)
	assert.Equal(t, int64(1), second.ReviewsRemoved)

	page, err := catalog.ListPlants(ctx, pagination.Params{Page: 1, Limit: 10}, "")
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	assert.Equal(t, "Calathea plant", page.Items[0].Name)
	assert.InDelta(t, 39.9, *page.Items[0].Price, 1e-9)

	featured, err := catalog.Featured(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, featured, 3)

	highlighted, err := reviews.Highlighted(ctx, 0)
	require.NoError(t, err)
	require.Len(t, highlighted, 1)
	assert.Equal(t, "Alena Patel", highlighted[0].UserName)
}

func TestStarterDataIsValid(t *testing.T) {
	for _, p := range Plants() {
		assert.NotEmpty(t, p.Name)
		assert.NotNil(t, p.Price)
	}
	assert.NotEmpty(t, Reviews())
}
