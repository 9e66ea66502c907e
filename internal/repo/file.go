package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pkordes/tripplanner/internal/domain"
)

// fileTripRepo stores every trip in one JSON object keyed by trip id.
// The whole collection is read on every operation and rewritten in full on
// every mutation. Writes go to a temp file in the same directory that is then
// renamed over the collection, so readers never see a partial file.
//
// mu serialises the read/mutate/write sequence within this process. There is
// no cross-process lock: two processes writing the same file race, and the
// last full snapshot wins.
type fileTripRepo struct {
	path string
	opts options
	mu   sync.RWMutex
}

// NewFileTripRepo constructs a TripRepo backed by the JSON file at path.
// The file (and its directory) is created on the first write; until then the
// collection is empty.
func NewFileTripRepo(path string, opts ...Option) TripRepo {
	return &fileTripRepo{path: path, opts: newOptions(opts)}
}

// Create allocates an id that is not already in the collection and persists the trip.
func (r *fileTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := ctx.Err(); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Create: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	trips, err := r.load()
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Create: %w", err)
	}

	id, err := r.allocateID(trips)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Create: %w", err)
	}

	now := r.opts.now()
	rec := trip.Clone()
	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec, err = rec.Normalize(); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Create: %w: %w", domain.ErrStorage, err)
	}
	trips[id] = rec

	if err := r.save(trips); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Create: %w", err)
	}
	return rec, nil
}

// GetByID returns the trip stored under id.
func (r *fileTripRepo) GetByID(ctx context.Context, id string) (domain.Trip, error) {
	if err := ctx.Err(); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.GetByID: %w", err)
	}
	if id == "" {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.GetByID: %w", domain.ErrNotFound)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	trips, err := r.load()
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.GetByID: %w", err)
	}
	trip, ok := trips[id]
	if !ok {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.GetByID: %w", domain.ErrNotFound)
	}
	return trip, nil
}

// List returns all trips, most recently created first. Trips created at the
// same instant are ordered by id so the result is stable across calls.
func (r *fileTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("repo.FileTripRepo.List: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	trips, err := r.load()
	if err != nil {
		return nil, fmt.Errorf("repo.FileTripRepo.List: %w", err)
	}

	out := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b domain.Trip) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Update merges patch into the stored trip. An unknown id returns
// domain.ErrNotFound without touching the file.
func (r *fileTripRepo) Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	if err := ctx.Err(); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Update: %w", err)
	}
	if id == "" {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Update: %w: id is required", domain.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	trips, err := r.load()
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Update: %w", err)
	}
	existing, ok := trips[id]
	if !ok {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Update: %w", domain.ErrNotFound)
	}

	updated := existing.Apply(patch)
	updated.UpdatedAt = r.opts.now()
	if updated, err = updated.Normalize(); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Update: %w: %w", domain.ErrStorage, err)
	}
	trips[id] = updated

	if err := r.save(trips); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.FileTripRepo.Update: %w", err)
	}
	return updated, nil
}

// allocateID draws ids until one is not present in trips.
func (r *fileTripRepo) allocateID(trips map[string]domain.Trip) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := r.opts.newID()
		if _, taken := trips[id]; !taken && id != "" {
			return id, nil
		}
	}
	return "", errIDSpaceExhausted
}

// load reads and decodes the collection. A missing or empty file is an
// empty collection.
func (r *fileTripRepo) load() (map[string]domain.Trip, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]domain.Trip{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrStorage, r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]domain.Trip{}, nil
	}

	trips := map[string]domain.Trip{}
	if err := json.Unmarshal(data, &trips); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", domain.ErrStorage, r.path, err)
	}
	for id, t := range trips {
		if t.ID == "" {
			t.ID = id
			trips[id] = t
		}
	}
	return trips, nil
}

// save atomically replaces the collection file with trips.
func (r *fileTripRepo) save(trips map[string]domain.Trip) error {
	data, err := json.MarshalIndent(trips, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding collection: %w", domain.ErrStorage, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", domain.ErrStorage, dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".trips-*.json")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", domain.ErrStorage, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("%w: writing collection: %w", domain.ErrStorage, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("%w: syncing collection: %w", domain.ErrStorage, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: closing temp file: %w", domain.ErrStorage, err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("%w: renaming collection to %s: %w", domain.ErrStorage, r.path, err)
	}

	success = true
	return nil
}
