package bootstrap_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripplanner/internal/bootstrap"
	"github.com/pkordes/tripplanner/internal/config"
	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpenStore_File(t *testing.T) {
	path := testutil.DataFile(t)
	cfg := config.Config{StoreBackend: config.BackendFile, DataFile: path}

	store, closeStore, err := bootstrap.OpenStore(context.Background(), cfg, discard)
	require.NoError(t, err)
	defer closeStore()

	created, err := store.Create(context.Background(), domain.Trip{DestinationCountry: "Japan"})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.NotNil(t, testutil.ReadFile(t, path))
}

func TestOpenStore_PostgresUnreachable(t *testing.T) {
	cfg := config.Config{
		StoreBackend: config.BackendPostgres,
		DatabaseURL:  "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1",
	}

	_, _, err := bootstrap.OpenStore(context.Background(), cfg, discard)

	assert.Error(t, err)
}

func TestOpenStore_Postgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := config.Config{StoreBackend: config.BackendPostgres, DatabaseURL: url}

	store, closeStore, err := bootstrap.OpenStore(context.Background(), cfg, discard)
	require.NoError(t, err)
	defer closeStore()

	_, err = store.List(context.Background())
	assert.NoError(t, err)
}
