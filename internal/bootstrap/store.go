// Package bootstrap opens the trip store selected by configuration. It is
// shared by the API server and the tripctl command.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/pkordes/tripplanner/internal/config"
	"github.com/pkordes/tripplanner/internal/repo"
	"github.com/pkordes/tripplanner/migrations"
)

// OpenStore returns the configured trip store and a func releasing it.
// The postgres backend applies pending migrations before returning.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repo.TripRepo, func(), error) {
	if cfg.StoreBackend != config.BackendPostgres {
		logger.Info("using file trip store", "path", cfg.DataFile)
		return repo.NewFileTripRepo(cfg.DataFile), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap.OpenStore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap.OpenStore: ping: %w", err)
	}

	// goose drives database/sql, so migrations get their own short-lived handle.
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap.OpenStore: %w", err)
	}
	version, err := migrations.Up(ctx, sqlDB)
	sqlDB.Close()
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap.OpenStore: %w", err)
	}
	logger.Info("database ready", "schema_version", version)

	return repo.NewTripRepo(pool), pool.Close, nil
}
