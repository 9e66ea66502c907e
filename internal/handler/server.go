// Package handler implements the HTTP handlers for the trip planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, itinerary.go, export.go) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripplanner/internal/domain"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching storage or the service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id string) (domain.Trip, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error)
	Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error)
	GenerateItinerary(ctx context.Context, tripID string) (domain.Trip, error)
	PatchCard(ctx context.Context, tripID, cardID string, raw map[string]any) (domain.Card, error)
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// Server serves every API endpoint.
type Server struct {
	trips         TripServicer
	log           *slog.Logger
	publicBaseURL string
	openAPI       []byte
}

// NewServer constructs the Server with all its dependencies.
// publicBaseURL is the externally visible origin used for share links in
// rendered itineraries; when empty no share link is printed.
func NewServer(trips TripServicer, log *slog.Logger, publicBaseURL string, openAPI []byte) *Server {
	return &Server{
		trips:         trips,
		log:           log,
		publicBaseURL: publicBaseURL,
		openAPI:       openAPI,
	}
}

// Register mounts all API routes on r. Middleware is the caller's concern.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/export", s.GetExport)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/", s.CreateTrip)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Patch("/", s.UpdateTrip)
			r.Post("/itinerary", s.GenerateItinerary)
			r.Get("/itinerary.pdf", s.GetItineraryPDF)
			r.Patch("/itinerary/cards/{cardId}", s.PatchCard)
		})
	})
}

// Handler returns a router with all API routes and no middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}
