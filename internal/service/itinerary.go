package service

import (
	"context"
	"fmt"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/itinerary"
)

// GenerateItinerary builds and stores the default itinerary for a trip.
// If the trip already has cards this is a no-op that returns the trip as stored.
func (s *TripService) GenerateItinerary(ctx context.Context, tripID string) (domain.Trip, error) {
	defer s.locks.lock(tripID)()

	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GenerateItinerary: %w", err)
	}
	if err := authorize(ctx, trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GenerateItinerary: %w", err)
	}
	if trip.Itinerary.HasCards() {
		return trip, nil
	}

	cards := itinerary.BuildDefaultItinerary(trip)
	updated, err := s.repo.Update(ctx, tripID, domain.TripPatch{
		Itinerary: domain.Some(&domain.Itinerary{UpdatedAt: s.now(), Cards: cards}),
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GenerateItinerary: %w", err)
	}

	s.log.InfoContext(ctx, "itinerary generated",
		"trip_id", tripID,
		"cards", len(cards),
	)
	return updated, nil
}

// PatchCard applies a client's field edits to one itinerary card and stores
// the updated card list. Unrecognized or invalid fields are dropped; if
// nothing recognizable remains, the stored card is returned without a write.
//
// Patches to the same trip are serialised so concurrent edits to different
// cards all survive.
//
// Returns domain.ErrNotFound if the trip, its itinerary, or the card does not
// exist, and domain.ErrForbidden if the actor does not own the trip.
func (s *TripService) PatchCard(ctx context.Context, tripID, cardID string, raw map[string]any) (domain.Card, error) {
	defer s.locks.lock(tripID)()

	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("service.TripService.PatchCard: %w", err)
	}
	if err := authorize(ctx, trip); err != nil {
		return domain.Card{}, fmt.Errorf("service.TripService.PatchCard: %w", err)
	}

	idx := trip.Itinerary.CardIndex(cardID)
	if idx < 0 {
		return domain.Card{}, fmt.Errorf("service.TripService.PatchCard: card %q: %w", cardID, domain.ErrNotFound)
	}
	card := trip.Itinerary.Cards[idx]

	update := itinerary.NormalizeFieldUpdates(raw)
	if update.IsEmpty() {
		s.recordPatch(false)
		s.log.DebugContext(ctx, "card patch had no editable fields",
			"trip_id", tripID,
			"card_id", cardID,
		)
		return card, nil
	}

	patched, err := itinerary.ApplyCardFieldUpdates(card, update)
	if err != nil {
		return domain.Card{}, fmt.Errorf("service.TripService.PatchCard: %w", err)
	}

	cards := itinerary.ReplaceCard(trip.Itinerary.Cards, idx, patched)
	if _, err := s.repo.Update(ctx, tripID, domain.TripPatch{
		Itinerary: domain.Some(&domain.Itinerary{UpdatedAt: s.now(), Cards: cards}),
	}); err != nil {
		return domain.Card{}, fmt.Errorf("service.TripService.PatchCard: %w", err)
	}

	s.recordPatch(true)
	return patched, nil
}

func (s *TripService) recordPatch(applied bool) {
	if s.patches != nil {
		s.patches.RecordCardPatch(applied)
	}
}
