package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/internal/repository"
	"github.com/utafrali/Planto/pkg/database"
	apperrors "github.com/utafrali/Planto/pkg/errors"
)

const plantColumns = `id, name, subtitle, description, price, image_url, rating, is_featured, is_trendy, category, created_at, updated_at`

// PlantRepository implements repository.PlantRepository using PostgreSQL.
type PlantRepository struct {
	db database.DBTX
}

// NewPlantRepository creates a new PostgreSQL-backed plant repository.
func NewPlantRepository(db database.DBTX) *PlantRepository {
	return &PlantRepository{db: db}
}

// List returns one page of plants in insertion order and the total count.
// The count runs as its own statement so pages past the end still report it.
func (r *PlantRepository) List(ctx context.Context, filter repository.PlantFilter) (_ []domain.Plant, _ int64, err error) {
	where := ""
	var args []any
	if filter.Category != "" {
		where = "WHERE category = $1"
		args = append(args, filter.Category)
	}

	countQuery := "SELECT COUNT(*) FROM plants " + where
	query := fmt.Sprintf(`
		SELECT %s
		FROM plants
		%s
		ORDER BY seq ASC
		LIMIT $%d OFFSET $%d`, plantColumns, where, len(args)+1, len(args)+2)

	ctx, end := database.TraceQuery(ctx, "ListPlants", query)
	defer func() { end(err) }()

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count plants: %w", err)
	}

	pageArgs := append(args, limitArg(filter.Limit), filter.Offset)
	plants, err := r.queryPlants(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list plants: %w", err)
	}
	return plants, total, nil
}

// ListFeatured returns up to limit featured plants.
func (r *PlantRepository) ListFeatured(ctx context.Context, limit int) (_ []domain.Plant, err error) {
	query := `SELECT ` + plantColumns + ` FROM plants WHERE is_featured ORDER BY seq ASC LIMIT $1`

	ctx, end := database.TraceQuery(ctx, "ListFeaturedPlants", query)
	defer func() { end(err) }()

	plants, err := r.queryPlants(ctx, query, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list featured plants: %w", err)
	}
	return plants, nil
}

// ListTrendy returns up to limit trendy plants.
func (r *PlantRepository) ListTrendy(ctx context.Context, limit int) (_ []domain.Plant, err error) {
	query := `SELECT ` + plantColumns + ` FROM plants WHERE is_trendy ORDER BY seq ASC LIMIT $1`

	ctx, end := database.TraceQuery(ctx, "ListTrendyPlants", query)
	defer func() { end(err) }()

	plants, err := r.queryPlants(ctx, query, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list trendy plants: %w", err)
	}
	return plants, nil
}

// GetByID retrieves a plant by its ID.
func (r *PlantRepository) GetByID(ctx context.Context, id string) (_ *domain.Plant, err error) {
	if _, perr := uuid.Parse(id); perr != nil {
		return nil, apperrors.NotFound("plant", id)
	}

	query := `SELECT ` + plantColumns + ` FROM plants WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetPlant", query)
	defer func() { end(err) }()

	p, err := scanPlant(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("plant", id)
		}
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return &p, nil
}

// Create inserts plant, assigning a new ID and timestamps.
func (r *PlantRepository) Create(ctx context.Context, plant *domain.Plant) (err error) {
	query := `
		INSERT INTO plants (` + plantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ctx, end := database.TraceQuery(ctx, "CreatePlant", query)
	defer func() { end(err) }()

	now := time.Now().UTC()
	if plant.CreatedAt.IsZero() {
		plant.CreatedAt = now
	}
	plant.UpdatedAt = now
	id := uuid.New().String()

	_, err = r.db.Exec(ctx, query,
		id,
		plant.Name,
		plant.Subtitle,
		plant.Description,
		plant.Price,
		plant.ImageURL,
		plant.Rating,
		plant.IsFeatured,
		plant.IsTrendy,
		plant.Category,
		plant.CreatedAt,
		plant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plant: %w", err)
	}
	plant.ID = id
	return nil
}

// DeleteAll removes every plant.
func (r *PlantRepository) DeleteAll(ctx context.Context) (_ int64, err error) {
	query := `DELETE FROM plants`

	ctx, end := database.TraceQuery(ctx, "DeleteAllPlants", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete plants: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PlantRepository) queryPlants(ctx context.Context, query string, args ...any) ([]domain.Plant, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plants := make([]domain.Plant, 0)
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plant: %w", err)
		}
		plants = append(plants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plant rows: %w", err)
	}
	return plants, nil
}

func scanPlant(row pgx.Row) (domain.Plant, error) {
	var p domain.Plant
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Subtitle,
		&p.Description,
		&p.Price,
		&p.ImageURL,
		&p.Rating,
		&p.IsFeatured,
		&p.IsTrendy,
		&p.Category,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
