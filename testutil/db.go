// Package testutil provides shared helpers for store tests.
// Database helpers skip automatically when TEST_DATABASE_URL is not set, so
// unit tests can run without a running database. File helpers work anywhere.
package testutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
)

// NewPool opens a *pgxpool.Pool connected to the database specified by the
// TEST_DATABASE_URL environment variable.
//
// The test is skipped automatically if TEST_DATABASE_URL is not set, so
// integration tests are opt-in and never break CI environments that lack a DB.
// The pool is closed automatically when the test (and all its subtests) finish.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := requireDSN(t)

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB opens a *sql.DB on TEST_DATABASE_URL through the pgx database/sql
// driver, for goose and other database/sql callers. The handle is closed when
// the test finishes.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openSQLDB(requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// MustOpenSQLDB is NewSQLDB for TestMain, where no *testing.T exists.
// It panics on failure; the caller closes the handle.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := openSQLDB(dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: " + err.Error())
	}
	return db
}

func openSQLDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// requireDSN returns the TEST_DATABASE_URL environment variable value,
// skipping the test if it is not set.
func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	return dsn
}

// DataFile returns the path of a trip collection file inside a fresh
// temporary directory. The file itself does not exist yet.
func DataFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data", "trips.json")
}

// ReadFile returns the raw contents of path, or nil if the file does not exist.
// Tests use it to prove that a failed mutation left the collection untouched.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatalf("testutil.ReadFile: %v", err)
	}
	return b
}
