// Package mongo implements the repositories on MongoDB, the default store.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/Planto/internal/repository"
)

// Collection names.
const (
	PlantsCollection  = "plants"
	ReviewsCollection = "reviews"
	UsersCollection   = "users"
)

// NewStore returns the MongoDB-backed repositories over db.
func NewStore(db *mongo.Database) repository.Store {
	return repository.Store{
		Plants:  NewPlantRepository(db),
		Reviews: NewReviewRepository(db),
		Users:   NewUserRepository(db),
	}
}

// EnsureIndexes creates the indexes the repositories rely on. It is safe to
// call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_email_unique")},
		},
		PlantsCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index().SetName("plants_category")},
			{Keys: bson.D{{Key: "isFeatured", Value: 1}}, Options: options.Index().SetName("plants_featured")},
			{Keys: bson.D{{Key: "isTrendy", Value: 1}}, Options: options.Index().SetName("plants_trendy")},
		},
		ReviewsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("reviews_created_at")},
			{Keys: bson.D{{Key: "highlighted", Value: 1}}, Options: options.Index().SetName("reviews_highlighted")},
		},
	}

	for _, coll := range []string{UsersCollection, PlantsCollection, ReviewsCollection} {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes[coll]); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// objectID parses a hex id; ok is false for ids that cannot exist.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func limitOpts(limit int) *options.FindOptions {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}
