// Package service contains the business logic for the trip planner.
// Services validate inputs, enforce ownership, and orchestrate the trip store
// and the itinerary patch engine. No persistence details live here; services
// depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/itinerary"
	"github.com/pkordes/tripplanner/internal/repo"
)

// PatchRecorder observes card patch outcomes. *metrics.Collector satisfies it.
type PatchRecorder interface {
	RecordCardPatch(applied bool)
}

// TripService implements business logic for Trip operations.
type TripService struct {
	repo    repo.TripRepo
	log     *slog.Logger
	now     func() time.Time
	patches PatchRecorder
	locks   tripLocks
}

// Option customises a TripService.
type Option func(*TripService)

// WithClock overrides the time source used for itinerary timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *TripService) { s.now = now }
}

// WithPatchRecorder reports every card patch to rec.
func WithPatchRecorder(rec PatchRecorder) Option {
	return func(s *TripService) { s.patches = rec }
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(r repo.TripRepo, log *slog.Logger, opts ...Option) *TripService {
	s := &TripService{
		repo: r,
		log:  log,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and persists a new trip. When the request is authenticated
// and no owner is given, the acting user becomes the owner. Trips start unpaid.
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if trip.OwnerID == "" {
		if actor, ok := domain.ActorFromContext(ctx); ok {
			trip.OwnerID = actor
		}
	}
	if trip.BillingStatus == "" {
		trip.BillingStatus = domain.BillingUnpaid
	}
	// Itineraries are generated, never submitted.
	trip.Itinerary = nil

	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	result, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single trip by ID.
// Returns domain.ErrNotFound if no trip with that ID exists.
func (s *TripService) GetByID(ctx context.Context, id string) (domain.Trip, error) {
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all trips, most recently created first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) List(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		return []domain.Trip{}, nil
	}
	return trips, nil
}

// ListPaged returns one page of trips and the total number of trips.
func (s *TripService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error) {
	trips, err := s.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListPaged: %w", err)
	}
	start, end := p.Window(len(trips))
	return trips[start:end], len(trips), nil
}

// Update validates and applies a partial update to an existing trip.
// Returns domain.ErrNotFound if the trip does not exist, domain.ErrForbidden
// if the actor does not own it, and domain.ErrValidation if the merged trip
// violates business rules.
func (s *TripService) Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	defer s.locks.lock(id)()

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if err := authorize(ctx, existing); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if err := validateTrip(existing.Apply(patch)); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}

	result, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return result, nil
}

// authorize allows the mutation when the trip has no owner or the actor owns it.
func authorize(ctx context.Context, trip domain.Trip) error {
	if trip.OwnerID == "" {
		return nil
	}
	actor, ok := domain.ActorFromContext(ctx)
	if !ok || actor != trip.OwnerID {
		return fmt.Errorf("%w: trip %s belongs to another user", domain.ErrForbidden, trip.ID)
	}
	return nil
}

// validateTrip enforces business rules common to Create and Update.
//   - TripLengthDays is 0 (unknown) or 1..MaxTripDays.
//   - Travelers is not negative.
//   - StartDate, if set, is a calendar date (YYYY-MM-DD).
//   - Budget, if set, is one of the budget tiers.
//   - BillingStatus, if set, is a known billing state.
func validateTrip(t domain.Trip) error {
	if t.TripLengthDays < 0 || t.TripLengthDays > itinerary.MaxTripDays {
		return fmt.Errorf("%w: tripLengthDays must be between 0 and %d", domain.ErrValidation, itinerary.MaxTripDays)
	}
	if t.Travelers < 0 {
		return fmt.Errorf("%w: travelers must not be negative", domain.ErrValidation)
	}
	if t.StartDate != "" {
		if _, err := time.Parse(time.DateOnly, t.StartDate); err != nil {
			return fmt.Errorf("%w: startDate must be formatted YYYY-MM-DD", domain.ErrValidation)
		}
	}
	switch t.Budget {
	case "", itinerary.TierBudget, itinerary.TierModerate, itinerary.TierLuxury:
	default:
		return fmt.Errorf("%w: budget must be one of budget, moderate, luxury", domain.ErrValidation)
	}
	if t.BillingStatus != "" && !t.BillingStatus.Valid() {
		return fmt.Errorf("%w: unknown billingStatus %q", domain.ErrValidation, t.BillingStatus)
	}
	return nil
}
