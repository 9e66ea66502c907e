// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests and server bootstrap.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS holds all *.sql migration files embedded at compile time.
// Pass this to goose.NewProvider instead of relying on a filesystem path at runtime.
//
//go:embed *.sql
var FS embed.FS

// Up applies every pending migration and returns the resulting schema version.
func Up(ctx context.Context, db *sql.DB) (int64, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, FS)
	if err != nil {
		return 0, fmt.Errorf("migrations.Up: create provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return 0, fmt.Errorf("migrations.Up: %w", err)
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations.Up: read version: %w", err)
	}
	return version, nil
}
