package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/pkg/database"
)

type reviewDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	UserName    string             `bson:"userName"`
	AvatarURL   string             `bson:"avatarUrl"`
	Rating      float64            `bson:"rating"`
	Text        string             `bson:"text"`
	Highlighted bool               `bson:"highlighted"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d reviewDocument) toDomain() domain.Review {
	return domain.Review{
		ID:          d.ID.Hex(),
		UserName:    d.UserName,
		AvatarURL:   d.AvatarURL,
		Rating:      d.Rating,
		Text:        d.Text,
		Highlighted: d.Highlighted,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// ReviewRepository implements repository.ReviewRepository on MongoDB.
type ReviewRepository struct {
	coll *mongo.Collection
}

// NewReviewRepository creates a review repository over db.
func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(ReviewsCollection)}
}

// ListLatest returns up to limit reviews, newest first.
func (r *ReviewRepository) ListLatest(ctx context.Context, limit int) (_ []domain.Review, err error) {
	ctx, end := database.TraceMongo(ctx, ReviewsCollection, "ListLatestReviews")
	defer func() { end(err) }()

	reviews, err := r.find(ctx, bson.M{}, limitOpts(limit).SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// ListHighlighted returns up to limit highlighted reviews.
func (r *ReviewRepository) ListHighlighted(ctx context.Context, limit int) (_ []domain.Review, err error) {
	ctx, end := database.TraceMongo(ctx, ReviewsCollection, "ListHighlightedReviews")
	defer func() { end(err) }()

	reviews, err := r.find(ctx, bson.M{"highlighted": true}, limitOpts(limit))
	if err != nil {
		return nil, fmt.Errorf("list highlighted reviews: %w", err)
	}
	return reviews, nil
}

// Create inserts review, assigning a new ObjectID and timestamps.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	ctx, end := database.TraceMongo(ctx, ReviewsCollection, "CreateReview")
	defer func() { end(err) }()

	now := time.Now().UTC()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now

	doc := reviewDocument{
		ID:          primitive.NewObjectID(),
		UserName:    review.UserName,
		AvatarURL:   review.AvatarURL,
		Rating:      review.Rating,
		Text:        review.Text,
		Highlighted: review.Highlighted,
		CreatedAt:   review.CreatedAt,
		UpdatedAt:   review.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	review.ID = doc.ID.Hex()
	return nil
}

// DeleteAll removes every review.
func (r *ReviewRepository) DeleteAll(ctx context.Context) (_ int64, err error) {
	ctx, end := database.TraceMongo(ctx, ReviewsCollection, "DeleteAllReviews")
	defer func() { end(err) }()

	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *ReviewRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]domain.Review, error) {
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	reviews := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		reviews = append(reviews, d.toDomain())
	}
	return reviews, nil
}
