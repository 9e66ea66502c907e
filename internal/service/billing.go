package service

import (
	"context"
	"fmt"

	"github.com/pkordes/tripplanner/internal/domain"
)

// ApplyBillingEvent records a billing status transition reported by the
// payment provider. Events are trusted system input, so no ownership check is
// made. Repeating the current status is a no-op and does not touch updatedAt.
// Returns domain.ErrValidation for an unknown status.
func (s *TripService) ApplyBillingEvent(ctx context.Context, tripID string, status domain.BillingStatus) (domain.Trip, error) {
	if !status.Valid() {
		return domain.Trip{}, fmt.Errorf("service.TripService.ApplyBillingEvent: %w: unknown billing status %q", domain.ErrValidation, status)
	}

	defer s.locks.lock(tripID)()

	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.ApplyBillingEvent: %w", err)
	}
	if trip.BillingStatus == status {
		return trip, nil
	}

	updated, err := s.repo.Update(ctx, tripID, domain.TripPatch{BillingStatus: domain.Some(status)})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.ApplyBillingEvent: %w", err)
	}

	s.log.InfoContext(ctx, "billing status changed",
		"trip_id", tripID,
		"from", string(trip.BillingStatus),
		"to", string(status),
	)
	return updated, nil
}
