package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pkordes/tripplanner/internal/domain"
)

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []domain.Trip `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readObject(w, r)
	if !ok {
		return
	}
	var trip domain.Trip
	if err := json.Unmarshal(body, &trip); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", "trip body is malformed: "+err.Error()))
		return
	}
	// Server-owned fields.
	trip.ID = ""
	trip.BillingStatus = ""
	trip.Itinerary = nil

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", err.Error()))
		return
	}
	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.trips.ListPaged(r.Context(), params)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	w.Header().Set("X-Total-Count", fmt.Sprint(total))
	writeJSON(w, http.StatusOK, TripList{
		Data:       trips,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", err.Error()))
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// UpdateTrip handles PATCH /trips/{id}.
// Keys present in the body replace stored values; absent keys are kept.
// The itinerary and billing status have their own flows and are ignored here.
// ownerId is fixed at creation and is ignored too.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", err.Error()))
		return
	}
	body, ok := s.readObject(w, r)
	if !ok {
		return
	}
	patch, err := domain.ParseTripPatch(body)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	patch.Itinerary = domain.Optional[*domain.Itinerary]{}
	patch.BillingStatus = domain.Optional[domain.BillingStatus]{}
	patch.OwnerID = domain.Optional[string]{}

	updated, err := s.trips.Update(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// readObject reads the request body and checks that it is a JSON object.
// On failure it writes the response and returns false.
func (s *Server) readObject(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("payload_too_large", "request body is too large"))
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", "could not read request body"))
		return nil, false
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", "request body must be a JSON object"))
		return nil, false
	}
	return trimmed, true
}
