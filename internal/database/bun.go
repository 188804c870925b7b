package database

import (
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// Pool sizing for the account API's short point lookups and single-row
// writes; nothing holds a connection across a request.
const (
	maxOpenConns = 25
	maxIdleConns = 5
)

// Connect opens the Postgres connection, verifies it, and wraps it in bun.
func Connect(dsn string) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)

	return NewBunDB(sqlDB), nil
}

// NewBunDB wraps an existing sql.DB in a bun instance with the Postgres dialect
func NewBunDB(sqlDB *sql.DB) *bun.DB {
	return bun.NewDB(sqlDB, pgdialect.New())
}
