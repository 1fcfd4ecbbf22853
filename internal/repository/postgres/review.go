package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/pkg/database"
)

const reviewColumns = `id, user_name, avatar_url, rating, text, highlighted, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ListLatest returns up to limit reviews, newest first.
func (r *ReviewRepository) ListLatest(ctx context.Context, limit int) (_ []domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews ORDER BY created_at DESC LIMIT $1`

	ctx, end := database.TraceQuery(ctx, "ListLatestReviews", query)
	defer func() { end(err) }()

	reviews, err := r.queryReviews(ctx, query, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// ListHighlighted returns up to limit highlighted reviews.
func (r *ReviewRepository) ListHighlighted(ctx context.Context, limit int) (_ []domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE highlighted ORDER BY created_at DESC LIMIT $1`

	ctx, end := database.TraceQuery(ctx, "ListHighlightedReviews", query)
	defer func() { end(err) }()

	reviews, err := r.queryReviews(ctx, query, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list highlighted reviews: %w", err)
	}
	return reviews, nil
}

// Create inserts review, assigning a new ID and timestamps.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, "CreateReview", query)
	defer func() { end(err) }()

	now := time.Now().UTC()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now
	id := uuid.New().String()

	_, err = r.db.Exec(ctx, query,
		id,
		review.UserName,
		review.AvatarURL,
		review.Rating,
		review.Text,
		review.Highlighted,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	review.ID = id
	return nil
}

// DeleteAll removes every review.
func (r *ReviewRepository) DeleteAll(ctx context.Context) (_ int64, err error) {
	query := `DELETE FROM reviews`

	ctx, end := database.TraceQuery(ctx, "DeleteAllReviews", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ReviewRepository) queryReviews(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.UserName,
			&rv.AvatarURL,
			&rv.Rating,
			&rv.Text,
			&rv.Highlighted,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}
