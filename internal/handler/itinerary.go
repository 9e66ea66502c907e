package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkordes/tripplanner/internal/render"
)

// GenerateItinerary handles POST /trips/{id}/itinerary.
// Calling it again on a trip that already has cards returns the trip unchanged.
func (s *Server) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", err.Error()))
		return
	}
	trip, err := s.trips.GenerateItinerary(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// PatchCard handles PATCH /trips/{id}/itinerary/cards/{cardId}.
// The body is a JSON object of card fields; unknown fields are ignored.
func (s *Server) PatchCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", err.Error()))
		return
	}
	cardID, err := pathParam(r, "cardId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", err.Error()))
		return
	}
	body, ok := s.readObject(w, r)
	if !ok {
		return
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", "card body is malformed: "+err.Error()))
		return
	}

	card, err := s.trips.PatchCard(r.Context(), id, cardID, raw)
	if err != nil {
		s.writeError(w, r, "card", err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// GetItineraryPDF handles GET /trips/{id}/itinerary.pdf.
func (s *Server) GetItineraryPDF(w http.ResponseWriter, r *http.Request) {
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

	var shareURL string
	if s.publicBaseURL != "" {
		shareURL = strings.TrimRight(s.publicBaseURL, "/") + "/trips/" + trip.ID
	}
	doc, err := render.ItineraryPDF(trip, shareURL)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="itinerary-`+trip.ID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
