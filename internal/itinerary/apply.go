package itinerary

import (
	"fmt"
	"slices"

	"github.com/pkordes/tripplanner/internal/domain"
)

// ApplyCardFieldUpdates returns a new card equal to card except for the
// fields set in u. The card id is never changed and card itself is not
// modified, so a caller can roll back by discarding the result.
//
// A card without an id was not located in an itinerary; passing one is a
// caller bug and returns domain.ErrInvalidArgument.
func ApplyCardFieldUpdates(card domain.Card, u CardUpdate) (domain.Card, error) {
	if card.ID == "" {
		return domain.Card{}, fmt.Errorf("itinerary.ApplyCardFieldUpdates: %w: card has no id", domain.ErrInvalidArgument)
	}

	out := card.Clone()
	out.Title = u.Title.Or(card.Title)
	out.Notes = u.Notes.Or(card.Notes)
	out.Time = u.Time.Or(card.Time)
	out.Location = u.Location.Or(card.Location)
	if acts, ok := u.Activities.Get(); ok {
		out.Activities = slices.Clone(acts)
	}
	out.EstimatedCost = u.EstimatedCost.Or(card.EstimatedCost)
	return out, nil
}

// ReplaceCard returns a copy of cards with the card at index i replaced by c.
// The other cards are deep-copied unchanged, so the original slice stays valid.
func ReplaceCard(cards []domain.Card, i int, c domain.Card) []domain.Card {
	out := make([]domain.Card, len(cards))
	for j, existing := range cards {
		if j == i {
			out[j] = c.Clone()
			continue
		}
		out[j] = existing.Clone()
	}
	return out
}
