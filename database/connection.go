package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LockTimeout bounds how long a settlement waits for another one holding the same pool row
const LockTimeout = 5 * time.Second

// DB represents a database connection pool
type DB struct {
	*pgxpool.Pool
}

// PoolConfig parses databaseURL and applies the session settings the ledger relies on
func PoolConfig(databaseURL string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	params := config.ConnConfig.RuntimeParams
	// settled_at defaults to NOW() and must read back equal to the service clock's UTC value
	params["timezone"] = "UTC"
	params["lock_timeout"] = fmt.Sprintf("%d", LockTimeout.Milliseconds())
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = "lottery"
	}

	return config, nil
}

// NewConnection creates a new database connection pool
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := PoolConfig(databaseURL)
	if err != nil {
		return nil, err
	}

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

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}
