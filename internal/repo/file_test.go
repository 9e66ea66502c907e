package repo_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/repo"
	"github.com/pkordes/tripplanner/testutil"
)

// tickingClock returns a clock that advances one second per call, so every
// store write gets a distinct timestamp.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newFileRepo(t *testing.T, opts ...repo.Option) (repo.TripRepo, string) {
	t.Helper()
	path := testutil.DataFile(t)
	opts = append([]repo.Option{repo.WithClock(tickingClock())}, opts...)
	return repo.NewFileTripRepo(path, opts...), path
}

func TestFileTripRepo_CreateThenGet(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()

	input := tripFixture()
	input.Attributes = map[string]any{"theme": "food", "partySize": json.Number("4")}

	created, err := r.Create(ctx, input)
	require.NoError(t, err)
	assert.Len(t, created.ID, 10)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := r.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestFileTripRepo_CreateThenGet_GoTypedAttributes(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()

	input := tripFixture()
	input.Attributes = map[string]any{
		"partySize": 4,
		"ratio":     1.5,
		"tags":      []string{"food", "art"},
		"published": "x",
	}

	created, err := r.Create(ctx, input)
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created, got)
	assert.Equal(t, json.Number("4"), created.Attributes["partySize"])
	assert.Equal(t, []any{"food", "art"}, created.Attributes["tags"])
	assert.NotContains(t, created.Attributes, "published", "known keys never become attributes")
	assert.Equal(t, 4, input.Attributes["partySize"], "caller's trip is not modified")
}

func TestFileTripRepo_UpdateThenGet_GoTypedAttributes(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()
	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	updated, err := r.Update(ctx, created.ID, domain.TripPatch{
		Attributes: map[string]any{"partySize": 6, "budget": "ignored"},
	})
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Equal(t, json.Number("6"), got.Attributes["partySize"])
	assert.NotContains(t, got.Attributes, "budget")
	assert.Equal(t, "moderate", got.Budget)
}

func TestFileTripRepo_CreateIgnoresCallerID(t *testing.T) {
	r, _ := newFileRepo(t, repo.WithIDGenerator(func() string { return "fresh00001" }))

	input := tripFixture()
	input.ID = "chosen"
	created, err := r.Create(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "fresh00001", created.ID)
}

func TestFileTripRepo_CreateRetriesOnCollision(t *testing.T) {
	ids := []string{"aaaaaaaaaa", "aaaaaaaaaa", "bbbbbbbbbb"}
	var mu sync.Mutex
	next := func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}
	r, _ := newFileRepo(t, repo.WithIDGenerator(next))
	ctx := context.Background()

	first, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)
	second, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	assert.Equal(t, "aaaaaaaaaa", first.ID)
	assert.Equal(t, "bbbbbbbbbb", second.ID)
}

func TestFileTripRepo_CreateGivesUpWhenIDsKeepColliding(t *testing.T) {
	r, _ := newFileRepo(t, repo.WithIDGenerator(func() string { return "samesame00" }))
	ctx := context.Background()

	_, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	_, err = r.Create(ctx, tripFixture())
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestFileTripRepo_GetByID_NotFound(t *testing.T) {
	r, _ := newFileRepo(t)

	for _, id := range []string{"", "missing"} {
		_, err := r.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "id %q", id)
	}
}

func TestFileTripRepo_EmptyPatchOnlyAdvancesUpdatedAt(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	updated, err := r.Update(ctx, created.ID, domain.TripPatch{})
	require.NoError(t, err)

	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	updated.UpdatedAt = created.UpdatedAt
	assert.Equal(t, created, updated)
}

func TestFileTripRepo_UpdatePreservesUnmentionedFields(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()

	input := tripFixture()
	input.Attributes = map[string]any{"theme": "food", "notes": "window seat"}
	created, err := r.Create(ctx, input)
	require.NoError(t, err)

	patch, err := domain.ParseTripPatch([]byte(`{"travelers":3,"theme":"art"}`))
	require.NoError(t, err)
	updated, err := r.Update(ctx, created.ID, patch)
	require.NoError(t, err)

	assert.Equal(t, 3, updated.Travelers)
	assert.Equal(t, "art", updated.Attributes["theme"])
	assert.Equal(t, "window seat", updated.Attributes["notes"])
	assert.Equal(t, created.DestinationCountry, updated.DestinationCountry)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.ID, updated.ID)

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestFileTripRepo_UpdateUnknownIDLeavesFileUntouched(t *testing.T) {
	r, path := newFileRepo(t)
	ctx := context.Background()

	_, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)
	before := testutil.ReadFile(t, path)

	_, err = r.Update(ctx, "nope", domain.TripPatch{Travelers: domain.Some(9)})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, before, testutil.ReadFile(t, path))
}

func TestFileTripRepo_UpdateEmptyID(t *testing.T) {
	r, _ := newFileRepo(t)

	_, err := r.Update(context.Background(), "", domain.TripPatch{})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestFileTripRepo_ListNewestFirst(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()

	var ids []string
	for attempt := 0; attempt < 3; attempt++ {
		created, err := r.Create(ctx, tripFixture())
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	trips, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, trips, 3)

	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{trips[0].ID, trips[1].ID, trips[2].ID})
	for i := 1; i < len(trips); i++ {
		assert.False(t, trips[i].CreatedAt.After(trips[i-1].CreatedAt))
	}
}

func TestFileTripRepo_MissingFileIsEmptyCollection(t *testing.T) {
	r, path := newFileRepo(t)

	trips, err := r.List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, trips)
	assert.Empty(t, trips)
	assert.Nil(t, testutil.ReadFile(t, path), "reads must not create the file")
}

func TestFileTripRepo_FileLayout(t *testing.T) {
	r, path := newFileRepo(t, repo.WithIDGenerator(func() string { return "abc123def0" }))

	_, err := r.Create(context.Background(), tripFixture())
	require.NoError(t, err)

	raw := testutil.ReadFile(t, path)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Contains(t, doc, "abc123def0")
	assert.Equal(t, "abc123def0", doc["abc123def0"]["id"])
	assert.Contains(t, string(raw), "\n  \"abc123def0\": {", "two-space indented")

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileTripRepo_ReadsHandWrittenCollection(t *testing.T) {
	path := testutil.DataFile(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{
  "legacy0001": {"destinationCountry": "Japan", "tripLengthDays": 5, "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"}
}`), 0o644))
	r := repo.NewFileTripRepo(path)

	got, err := r.GetByID(context.Background(), "legacy0001")

	require.NoError(t, err)
	assert.Equal(t, "legacy0001", got.ID, "id is taken from the key when missing")
	assert.Equal(t, "Japan", got.DestinationCountry)
}

func TestFileTripRepo_CorruptFileIsStorageError(t *testing.T) {
	path := testutil.DataFile(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	r := repo.NewFileTripRepo(path)

	_, err := r.List(context.Background())

	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestFileTripRepo_CanceledContext(t *testing.T) {
	r, path := newFileRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Create(ctx, tripFixture())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, testutil.ReadFile(t, path))
}

func TestFileTripRepo_ConcurrentWritesToDifferentTrips(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()

	const n = 12
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := tripFixture()
			in.Attributes = map[string]any{"slot": fmt.Sprint(i)}
			created, err := r.Create(ctx, in)
			assert.NoError(t, err)
			ids[i] = created.ID
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Update(ctx, ids[i], domain.TripPatch{
				Travelers:  domain.Some(i + 1),
				Attributes: map[string]any{"note": fmt.Sprintf("trip %d", i)},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n)
	for i, id := range ids {
		got, err := r.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i+1, got.Travelers, "trip %d", i)
		assert.Equal(t, fmt.Sprint(i), got.Attributes["slot"], "trip %d", i)
		assert.Equal(t, fmt.Sprintf("trip %d", i), got.Attributes["note"], "trip %d", i)
	}
}

func TestFileTripRepo_ConcurrentUpdatesAreSerialised(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()
	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Update(ctx, created.ID, domain.TripPatch{
				Attributes: map[string]any{fmt.Sprintf("k%d", i): "v"},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Attributes, writers, "every writer's key survives")
}
