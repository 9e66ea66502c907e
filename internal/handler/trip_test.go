package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/handler"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	create            func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID           func(ctx context.Context, id string) (domain.Trip, error)
	listPaged         func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error)
	update            func(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error)
	generateItinerary func(ctx context.Context, tripID string) (domain.Trip, error)
	patchCard         func(ctx context.Context, tripID, cardID string, raw map[string]any) (domain.Card, error)
	export            func(ctx context.Context) ([]domain.ExportRow, error)
}

func (m *mockTripServicer) Create(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, t)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id string) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripServicer) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error) {
	return m.listPaged(ctx, p)
}
func (m *mockTripServicer) Update(ctx context.Context, id string, p domain.TripPatch) (domain.Trip, error) {
	return m.update(ctx, id, p)
}
func (m *mockTripServicer) GenerateItinerary(ctx context.Context, tripID string) (domain.Trip, error) {
	return m.generateItinerary(ctx, tripID)
}
func (m *mockTripServicer) PatchCard(ctx context.Context, tripID, cardID string, raw map[string]any) (domain.Card, error) {
	return m.patchCard(ctx, tripID, cardID, raw)
}
func (m *mockTripServicer) Export(ctx context.Context) ([]domain.ExportRow, error) {
	return m.export(ctx)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

// ---- helpers ---------------------------------------------------------------

func newHTTPHandler(svc handler.TripServicer) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.NewServer(svc, log, "https://trips.example.com", []byte("openapi: 3.0.3\n")).Handler()
}

func tripFixture() domain.Trip {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return domain.Trip{
		ID:                 "abc123def0",
		DestinationCountry: "France",
		DestinationCity:    "Paris",
		TripLengthDays:     3,
		BillingStatus:      domain.BillingUnpaid,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// ---- POST /trips -----------------------------------------------------------

func TestCreateTrip_201(t *testing.T) {
	fixture := tripFixture()
	var got domain.Trip
	svc := &mockTripServicer{
		create: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
			got = trip
			return fixture, nil
		},
	}

	rec := do(t, newHTTPHandler(svc), http.MethodPost, "/trips",
		`{"id":"client-chosen","destinationCountry":"France","tripLengthDays":3,"billingStatus":"paid","theme":"food"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, got.ID, "client ids are ignored")
	assert.Empty(t, got.BillingStatus, "clients cannot set billing status")
	assert.Equal(t, "France", got.DestinationCountry)
	assert.Equal(t, "food", got.Attributes["theme"])

	var resp domain.Trip
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.ID, resp.ID)
}

func TestCreateTrip_400_NotAnObject(t *testing.T) {
	svc := &mockTripServicer{}

	rec := do(t, newHTTPHandler(svc), http.MethodPost, "/trips", `["not","an","object"]`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decodeError(t, rec).Error.Code)
}

func TestCreateTrip_422_ValidationError(t *testing.T) {
	svc := &mockTripServicer{
		create: func(_ context.Context, _ domain.Trip) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w: travelers must not be negative", domain.ErrValidation)
		},
	}

	rec := do(t, newHTTPHandler(svc), http.MethodPost, "/trips", `{"travelers":-1}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "travelers must not be negative", resp.Error.Message)
}

func TestCreateTrip_500_HidesDetail(t *testing.T) {
	svc := &mockTripServicer{
		create: func(_ context.Context, _ domain.Trip) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("repo: %w: disk full", domain.ErrStorage)
		},
	}

	rec := do(t, newHTTPHandler(svc), http.MethodPost, "/trips", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "internal_error", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "disk")
}

// ---- GET /trips ------------------------------------------------------------

func TestListTrips_200_WithPagination(t *testing.T) {
	var gotParams domain.PaginationParams
	svc := &mockTripServicer{
		listPaged: func(_ context.Context, p domain.PaginationParams) ([]domain.Trip, int, error) {
			gotParams = p
			return []domain.Trip{tripFixture()}, 41, nil
		},
	}

	rec := do(t, newHTTPHandler(svc), http.MethodGet, "/trips?page=3&limit=20", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PaginationParams{Page: 3, Limit: 20}, gotParams)
	assert.Equal(t, "41", rec.Header().Get("X-Total-Count"))

	var resp handler.TripList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, handler.Pagination{Page: 3, Limit: 20, Total: 41}, resp.Pagination)
}

func TestListTrips_200_EmptyIsArray(t *testing.T) {
	svc := &mockTripServicer{
		listPaged: func(_ context.Context, _ domain.PaginationParams) ([]domain.Trip, int, error) {
			return []domain.Trip{}, 0, nil
		},
	}

	rec := do(t, newHTTPHandler(svc), http.MethodGet, "/trips", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestListTrips_400_BadPage(t *testing.T) {
	rec := do(t, newHTTPHandler(&mockTripServicer{}), http.MethodGet, "/trips?page=two", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- GET /trips/{id} -------------------------------------------------------

func TestGetTrip_200(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		getByID: func(_ context.Context, id string) (domain.Trip, error) {
			assert.Equal(t, fixture.ID, id)
			return fixture, nil
		},
	}

	rec := do(t, newHTTPHandler(svc), http.MethodGet, "/trips/"+fixture.ID, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.Trip
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture, resp)
}

func TestGetTrip_404(t *testing.T) {
	svc := &mockTripServicer{
		getByID: func(_ context.Context, _ string) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}

	rec := do(t, newHTTPHandler(svc), http.MethodGet, "/trips/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "trip not found", decodeError(t, rec).Error.Message)
}

// ---- PATCH /trips/{id} -----------------------------------------------------

func TestUpdateTrip_200(t *testing.T) {
	var gotPatch domain.TripPatch
	svc := &mockTripServicer{
		update: func(_ context.Context, id string, p domain.TripPatch) (domain.Trip, error) {
			gotPatch = p
			trip := tripFixture()
			trip.Published = true
			return trip, nil
		},
	}

	rec := do(t, newHTTPHandler(svc), http.MethodPatch, "/trips/abc123def0",
		`{"published":true,"billingStatus":"paid","itinerary":{"cards":[]}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Some(true), gotPatch.Published)
	assert.False(t, gotPatch.BillingStatus.IsSet())
	assert.False(t, gotPatch.Itinerary.IsSet())
}

func TestUpdateTrip_OwnerIDIsNotTransferable(t *testing.T) {
	var gotPatch domain.TripPatch
	svc := &mockTripServicer{
		update: func(_ context.Context, _ string, p domain.TripPatch) (domain.Trip, error) {
			gotPatch = p
			return tripFixture(), nil
		},
	}

	rec := do(t, newHTTPHandler(svc), http.MethodPatch, "/trips/abc123def0",
		`{"ownerId":"user-2","travelers":3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, gotPatch.OwnerID.IsSet())
	assert.Equal(t, domain.Some(3), gotPatch.Travelers)
	assert.NotContains(t, gotPatch.Attributes, "ownerId")
}

func TestUpdateTrip_400_NonObjectBody(t *testing.T) {
	for _, body := range []string{`"hello"`, `42`, `null`, `[1]`, ``} {
		t.Run(body, func(t *testing.T) {
			rec := do(t, newHTTPHandler(&mockTripServicer{}), http.MethodPatch, "/trips/abc123def0", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateTrip_400_WrongFieldType(t *testing.T) {
	rec := do(t, newHTTPHandler(&mockTripServicer{}), http.MethodPatch, "/trips/abc123def0", `{"travelers":"many"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decodeError(t, rec).Error.Code)
}

func TestUpdateTrip_403(t *testing.T) {
	svc := &mockTripServicer{
		update: func(_ context.Context, _ string, _ domain.TripPatch) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", domain.ErrForbidden)
		},
	}

	rec := do(t, newHTTPHandler(svc), http.MethodPatch, "/trips/abc123def0", `{"published":true}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateTrip_413(t *testing.T) {
	h := newHTTPHandler(&mockTripServicer{})
	req := httptest.NewRequest(http.MethodPatch, "/trips/abc123def0", bytes.NewBufferString(`{"notes":"`+strings.Repeat("x", 64)+`"}`))
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
