package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/internal/event"
	"github.com/utafrali/Planto/internal/repository"
	"github.com/utafrali/Planto/internal/session"
)

// --- Mock Plant Repository ---

type mockPlantRepository struct {
	mock.Mock
}

func (m *mockPlantRepository) List(ctx context.Context, filter repository.PlantFilter) ([]domain.Plant, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Plant), args.Get(1).(int64), args.Error(2)
}

func (m *mockPlantRepository) ListFeatured(ctx context.Context, limit int) ([]domain.Plant, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Plant), args.Error(1)
}

func (m *mockPlantRepository) ListTrendy(ctx context.Context, limit int) ([]domain.Plant, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Plant), args.Error(1)
}

func (m *mockPlantRepository) GetByID(ctx context.Context, id string) (*domain.Plant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Plant), args.Error(1)
}

func (m *mockPlantRepository) Create(ctx context.Context, plant *domain.Plant) error {
	args := m.Called(ctx, plant)
	return args.Error(0)
}

func (m *mockPlantRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) ListLatest(ctx context.Context, limit int) ([]domain.Review, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListHighlighted(ctx context.Context, limit int) ([]domain.Review, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock Event Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockPublisher) PublishPlantCreated(ctx context.Context, plant *domain.Plant) error {
	return m.Called(ctx, plant).Error(0)
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockPublisher) PublishCartUpdated(ctx context.Context, data event.CartUpdatedData) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockPublisher) PublishCartCleared(ctx context.Context, userID string, removed int) error {
	return m.Called(ctx, userID, removed).Error(0)
}

func (m *mockPublisher) PublishFavoritesUpdated(ctx context.Context, data event.FavoritesUpdatedData) error {
	return m.Called(ctx, data).Error(0)
}

// quietPublisher accepts every event.
func quietPublisher() *mockPublisher {
	p := &mockPublisher{}
	for _, method := range []string{
		"PublishUserRegistered", "PublishPlantCreated", "PublishReviewCreated",
		"PublishCartUpdated", "PublishFavoritesUpdated",
	} {
		p.On(method, mock.Anything, mock.Anything).Return(nil).Maybe()
	}
	p.On("PublishCartCleared", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return p
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(t *testing.T) *session.Registry {
	t.Helper()
	reg, err := session.NewRegistry(session.Config{IdleTTL: time.Hour, NotificationDuration: time.Minute}, newTestLogger(), nil)
	require.NoError(t, err)
	return reg
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }
