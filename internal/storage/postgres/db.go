// Package postgres implements the scene store and user directory on
// PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Open connects to PostgreSQL, verifies the connection and applies the pool
// settings shared by both stores.
func Open(ctx context.Context, dataSourceName string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("connected to PostgreSQL", slog.String("component", "postgres"))
	return db, nil
}
