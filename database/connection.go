package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for the archive workload: one synchronous archiver plus a few
// indexer readers. Idle archive connections are released quickly since writes
// arrive in bursts around placements.
const (
	poolMaxConns        = 8
	poolMinConns        = 1
	poolMaxConnIdleTime = 5 * time.Minute
)

// DB is the archive connection pool.
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a pool against the archive database and verifies it.
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Archive timestamps are always UTC.
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"

	config.MaxConns = poolMaxConns
	config.MinConns = poolMinConns
	config.MaxConnIdleTime = poolMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool.
func (db *DB) Close() {
	db.Pool.Close()
}
