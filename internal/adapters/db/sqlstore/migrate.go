package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// DefaultCategories are inserted by Seed into an empty catalog.
var DefaultCategories = []CategoryModel{
	{Name: "Uncategorized", Description: "Products without a specific category"},
}

// RunMigrations applies pending migrations for the dialect of db. Running it
// against an up-to-date schema is a no-op.
func RunMigrations(ctx context.Context, db *gorm.DB) ([]*goose.MigrationResult, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	var (
		dialect goose.Dialect
		dir     string
	)
	switch name := db.Dialector.Name(); name {
	case "postgres":
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	case "sqlite":
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", name)
	}

	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return nil, err
	}

	return provider.Up(ctx)
}

func Seed(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&CategoryModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := make([]CategoryModel, len(DefaultCategories))
	copy(seed, DefaultCategories)
	return db.WithContext(ctx).Create(&seed).Error
}
