package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/internal/repository"
	"github.com/utafrali/Planto/pkg/database"
	apperrors "github.com/utafrali/Planto/pkg/errors"
)

type plantDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Subtitle    string             `bson:"subtitle,omitempty"`
	Description string             `bson:"description,omitempty"`
	Price       *float64           `bson:"price,omitempty"`
	ImageURL    string             `bson:"imageUrl"`
	Rating      float64            `bson:"rating"`
	IsFeatured  bool               `bson:"isFeatured"`
	IsTrendy    bool               `bson:"isTrendy"`
	Category    string             `bson:"category,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d plantDocument) toDomain() domain.Plant {
	return domain.Plant{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Subtitle:    d.Subtitle,
		Description: d.Description,
		Price:       d.Price,
		ImageURL:    d.ImageURL,
		Rating:      d.Rating,
		IsFeatured:  d.IsFeatured,
		IsTrendy:    d.IsTrendy,
		Category:    d.Category,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// PlantRepository implements repository.PlantRepository on MongoDB.
type PlantRepository struct {
	coll *mongo.Collection
}

// NewPlantRepository creates a plant repository over db.
func NewPlantRepository(db *mongo.Database) *PlantRepository {
	return &PlantRepository{coll: db.Collection(PlantsCollection)}
}

// List returns one page of plants ordered by creation and the total count.
func (r *PlantRepository) List(ctx context.Context, filter repository.PlantFilter) (_ []domain.Plant, _ int64, err error) {
	ctx, end := database.TraceMongo(ctx, PlantsCollection, "ListPlants")
	defer func() { end(err) }()

	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	opts := limitOpts(filter.Limit).
		SetSkip(int64(filter.Offset)).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	plants, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list plants: %w", err)
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count plants: %w", err)
	}
	return plants, total, nil
}

// ListFeatured returns up to limit featured plants.
func (r *PlantRepository) ListFeatured(ctx context.Context, limit int) (_ []domain.Plant, err error) {
	ctx, end := database.TraceMongo(ctx, PlantsCollection, "ListFeaturedPlants")
	defer func() { end(err) }()

	plants, err := r.find(ctx, bson.M{"isFeatured": true}, limitOpts(limit))
	if err != nil {
		return nil, fmt.Errorf("list featured plants: %w", err)
	}
	return plants, nil
}

// ListTrendy returns up to limit trendy plants.
func (r *PlantRepository) ListTrendy(ctx context.Context, limit int) (_ []domain.Plant, err error) {
	ctx, end := database.TraceMongo(ctx, PlantsCollection, "ListTrendyPlants")
	defer func() { end(err) }()

	plants, err := r.find(ctx, bson.M{"isTrendy": true}, limitOpts(limit))
	if err != nil {
		return nil, fmt.Errorf("list trendy plants: %w", err)
	}
	return plants, nil
}

// GetByID retrieves a plant by its hex id.
func (r *PlantRepository) GetByID(ctx context.Context, id string) (_ *domain.Plant, err error) {
	ctx, end := database.TraceMongo(ctx, PlantsCollection, "GetPlant")
	defer func() { end(err) }()

	oid, ok := objectID(id)
	if !ok {
		return nil, apperrors.NotFound("plant", id)
	}

	var doc plantDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("plant", id)
		}
		return nil, fmt.Errorf("get plant: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

// Create inserts plant, assigning a new ObjectID and timestamps.
func (r *PlantRepository) Create(ctx context.Context, plant *domain.Plant) (err error) {
	ctx, end := database.TraceMongo(ctx, PlantsCollection, "CreatePlant")
	defer func() { end(err) }()

	now := time.Now().UTC()
	if plant.CreatedAt.IsZero() {
		plant.CreatedAt = now
	}
	plant.UpdatedAt = now

	doc := plantDocument{
		ID:          primitive.NewObjectID(),
		Name:        plant.Name,
		Subtitle:    plant.Subtitle,
		Description: plant.Description,
		Price:       plant.Price,
		ImageURL:    plant.ImageURL,
		Rating:      plant.Rating,
		IsFeatured:  plant.IsFeatured,
		IsTrendy:    plant.IsTrendy,
		Category:    plant.Category,
		CreatedAt:   plant.CreatedAt,
		UpdatedAt:   plant.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert plant: %w", err)
	}
	plant.ID = doc.ID.Hex()
	return nil
}

// DeleteAll removes every plant.
func (r *PlantRepository) DeleteAll(ctx context.Context) (_ int64, err error) {
	ctx, end := database.TraceMongo(ctx, PlantsCollection, "DeleteAllPlants")
	defer func() { end(err) }()

	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete plants: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *PlantRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]domain.Plant, error) {
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []plantDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	plants := make([]domain.Plant, 0, len(docs))
	for _, d := range docs {
		plants = append(plants, d.toDomain())
	}
	return plants, nil
}
