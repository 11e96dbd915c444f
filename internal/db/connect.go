package db

import (
	"context"
	"time"

	"chess_arena/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the match archive pool. The archive is optional, so a
// failure is returned to the caller instead of exiting.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("match archive connected")
	return pool, nil
}
