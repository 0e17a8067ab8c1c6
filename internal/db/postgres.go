// Package db provides the PostgreSQL and Redis connection helpers used at
// startup. Both verify the connection before returning so a bad URL fails
// the boot instead of the first request.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pingTimeout = 5 * time.Second

// Pool sizing for a service whose queries are short and index-backed. The
// sweep adds a burst every few hours, so the ceiling leaves headroom over
// the HTTP-driven baseline.
const (
	poolMaxConns = 10
	poolMinConns = 2
)

// NewPostgresPool parses databaseURL, applies the service pool sizing and
// returns a verified pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	cfg.MaxConns = poolMaxConns
	cfg.MinConns = poolMinConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}
