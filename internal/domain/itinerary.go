package domain

import (
	"slices"
	"time"
)

// Itinerary is the day-by-day plan attached to a trip. It has no identity of
// its own; it is owned by exactly one Trip. Card order is trip day order and
// is preserved across updates.
type Itinerary struct {
	UpdatedAt time.Time `json:"updatedAt"`
	Cards     []Card    `json:"cards"`
}

// Card is one itinerary entry, usually one day of the trip.
// ID is unique within its itinerary only. Day and Date are structural and
// set when the itinerary is built; the remaining fields are editable.
type Card struct {
	ID            string   `json:"id"`
	Day           int      `json:"day"`
	Date          string   `json:"date,omitempty"`
	Title         string   `json:"title"`
	Notes         string   `json:"notes"`
	Time          string   `json:"time"` // "15:04", empty when unscheduled
	Location      string   `json:"location"`
	Activities    []string `json:"activities"`
	EstimatedCost float64  `json:"estimatedCost"`
}

// Clone returns a copy of c that does not share its Activities slice.
func (c Card) Clone() Card {
	out := c
	out.Activities = slices.Clone(c.Activities)
	return out
}

// Clone returns a deep copy of the itinerary. A nil itinerary clones to nil.
func (it *Itinerary) Clone() *Itinerary {
	if it == nil {
		return nil
	}
	out := &Itinerary{UpdatedAt: it.UpdatedAt}
	if it.Cards != nil {
		out.Cards = make([]Card, len(it.Cards))
		for i, c := range it.Cards {
			out.Cards[i] = c.Clone()
		}
	}
	return out
}

// HasCards reports whether the itinerary exists and holds at least one card.
func (it *Itinerary) HasCards() bool {
	return it != nil && len(it.Cards) > 0
}

// CardIndex returns the position of the card with the given id, or -1.
func (it *Itinerary) CardIndex(id string) int {
	if it == nil || id == "" {
		return -1
	}
	return slices.IndexFunc(it.Cards, func(c Card) bool { return c.ID == id })
}
