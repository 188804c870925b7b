package database

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/pavelhrube/go-account-api/internal/database/migrations"
)

// RunMigrations applies all pending SQL migrations from the embedded FS.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
