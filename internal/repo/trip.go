// Package repo contains all trip persistence logic for the trip planner.
// TripRepo has two implementations: a JSON collection file (the default) and
// a Postgres document table. No business logic lives here; the store does not
// interpret itineraries or pass-through attributes.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/tripplanner/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not a concrete implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create assigns a fresh unique id, stamps created/updated timestamps and
	// returns the persisted record. Fails only on persistence failure.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip.
	// Returns domain.ErrNotFound if id is empty or unknown.
	GetByID(ctx context.Context, id string) (domain.Trip, error)

	// List returns all trips ordered by created_at descending, ties by id.
	List(ctx context.Context) ([]domain.Trip, error)

	// Update shallow-merges patch over the stored trip, stamps updated_at and
	// returns the updated record. Returns domain.ErrInvalidArgument for an
	// empty id and domain.ErrNotFound if no trip with that id exists.
	Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error)
}

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
// Begin on a pgx.Tx opens a savepoint, so Update still works inside a test tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// pgTripRepo is the Postgres implementation of TripRepo. Each trip is one row
// holding the full trip document as jsonb; created_at and updated_at are
// duplicated into columns for ordering.
type pgTripRepo struct {
	db   db
	opts options
}

// NewTripRepo constructs a Postgres-backed TripRepo.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db, opts ...Option) TripRepo {
	return &pgTripRepo{db: db, opts: newOptions(opts)}
}

// Create inserts a new trip. Id collisions are detected by the primary key
// and retried with a fresh id.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (id, doc, created_at, updated_at)
		VALUES (@id, @doc::jsonb, @created_at, @updated_at)
		ON CONFLICT (id) DO NOTHING`

	now := r.opts.now()
	rec := trip.Clone()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		rec.ID = r.opts.newID()
		doc, err := json.Marshal(rec)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: encode: %w", err)
		}

		tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
			"id":         rec.ID,
			"doc":        string(doc),
			"created_at": rec.CreatedAt,
			"updated_at": rec.UpdatedAt,
		})
		if err != nil {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", storageErr(err))
		}
		if tag.RowsAffected() == 1 {
			return decodeDoc(doc)
		}
	}
	return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", errIDSpaceExhausted)
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id string) (domain.Trip, error) {
	if id == "" {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", domain.ErrNotFound)
	}
	const q = `SELECT doc FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", storageErr(err))
	}
	return result, nil
}

// List returns all trips, most recently created first.
func (r *pgTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	const q = `SELECT doc FROM trips ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: %w", storageErr(err))
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.List: scan: %w", storageErr(err))
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: rows: %w", storageErr(err))
	}
	return trips, nil
}

// Update locks the row, merges the patch in Go and writes the document back
// inside one transaction.
func (r *pgTripRepo) Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	if id == "" {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w: id is required", domain.ErrInvalidArgument)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: begin: %w", storageErr(err))
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	const sel = `SELECT doc FROM trips WHERE id = @id FOR UPDATE`
	existing, err := scanTrip(tx.QueryRow(ctx, sel, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", storageErr(err))
	}

	updated := existing.Apply(patch)
	updated.UpdatedAt = r.opts.now()
	doc, err := json.Marshal(updated)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: encode: %w", err)
	}

	const upd = `
		UPDATE trips
		SET doc        = @doc::jsonb,
		    updated_at = @updated_at
		WHERE id = @id`
	if _, err := tx.Exec(ctx, upd, pgx.NamedArgs{
		"id":         id,
		"doc":        string(doc),
		"updated_at": updated.UpdatedAt,
	}); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", storageErr(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: commit: %w", storageErr(err))
	}
	return decodeDoc(doc)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip decodes a single jsonb trip document.
func scanTrip(s scanner) (domain.Trip, error) {
	var doc []byte
	if err := s.Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	return decodeDoc(doc)
}

// decodeDoc decodes a trip document. Create and Update return the decoded
// form of what they wrote so the result matches a later read.
func decodeDoc(doc []byte) (domain.Trip, error) {
	var t domain.Trip
	if err := json.Unmarshal(doc, &t); err != nil {
		return domain.Trip{}, fmt.Errorf("%w: decode trip document: %w", domain.ErrStorage, err)
	}
	return t, nil
}

// storageErr tags err as a persistence failure unless it is already one of
// the domain conditions callers inspect.
func storageErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}

// timestamp truncates to microseconds so file and Postgres stores agree on
// what a stored time looks like after a round trip.
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
