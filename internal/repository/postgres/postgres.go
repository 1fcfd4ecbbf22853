// Package postgres implements the repositories on PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/utafrali/Planto/internal/repository"
	"github.com/utafrali/Planto/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies pending schema migrations.
func Migrate(ctx context.Context, db database.Migrator, logger *slog.Logger) error {
	return database.RunMigrations(ctx, db, Migrations(), logger)
}

// NewStore returns the PostgreSQL-backed repositories over db.
func NewStore(db database.DBTX) repository.Store {
	return repository.Store{
		Plants:  NewPlantRepository(db),
		Reviews: NewReviewRepository(db),
		Users:   NewUserRepository(db),
	}
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// limitArg turns a non-positive limit into NULL, which LIMIT treats as unbounded.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
