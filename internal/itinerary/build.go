package itinerary

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkordes/tripplanner/internal/domain"
)

// MaxTripDays is the longest itinerary BuildDefaultItinerary produces.
const MaxTripDays = 30

// Budget tiers recognized by the default itinerary builder.
const (
	TierBudget   = "budget"
	TierModerate = "moderate"
	TierLuxury   = "luxury"
)

type tierProfile struct {
	dailyCost  float64 // per traveler
	startTime  string
	activities []string
}

var tierProfiles = map[string]tierProfile{
	TierBudget: {
		dailyCost: 45,
		startTime: "09:00",
		activities: []string{
			"Free walking tour",
			"Local market visit",
			"Picnic in a public park",
			"Street food tasting",
			"Self-guided museum day",
		},
	},
	TierModerate: {
		dailyCost: 120,
		startTime: "09:30",
		activities: []string{
			"Guided city tour",
			"Museum visit",
			"Lunch at a local bistro",
			"Day trip to a nearby town",
			"Cooking class",
		},
	},
	TierLuxury: {
		dailyCost: 350,
		startTime: "10:00",
		activities: []string{
			"Private guided tour",
			"Afternoon at the spa",
			"Tasting menu dinner",
			"Chauffeured day trip",
			"Private gallery visit",
		},
	},
}

// NormalizeTier maps a free-form budget value to one of the Tier* constants.
// Unknown and empty values map to TierModerate.
func NormalizeTier(budget string) string {
	switch strings.ToLower(strings.TrimSpace(budget)) {
	case TierBudget, "low", "cheap", "backpacker":
		return TierBudget
	case TierLuxury, "high", "premium":
		return TierLuxury
	default:
		return TierModerate
	}
}

// BuildDefaultItinerary returns one card per day of the trip, in day order.
// It is deterministic in the trip's attributes and has no side effects; the
// caller persists the result.
//
// The trip length is clamped to 1..MaxTripDays. Card ids are "day-1".."day-N".
// When the trip has a valid start date each card carries its calendar date.
func BuildDefaultItinerary(trip domain.Trip) []domain.Card {
	days := min(max(trip.TripLengthDays, 1), MaxTripDays)
	dest := destinationLabel(trip)
	location := trip.DestinationCity
	if location == "" {
		location = trip.DestinationCountry
	}
	profile := tierProfiles[NormalizeTier(trip.Budget)]
	travelers := max(trip.Travelers, 1)
	start, hasStart := parseDate(trip.StartDate)

	cards := make([]domain.Card, days)
	for i := 0; i < days; i++ {
		day := i + 1
		c := domain.Card{
			ID:            fmt.Sprintf("day-%d", day),
			Day:           day,
			Title:         fmt.Sprintf("Day %d in %s", day, dest),
			Time:          profile.startTime,
			Location:      location,
			EstimatedCost: roundCents(profile.dailyCost * float64(travelers)),
		}

		switch {
		case day == 1:
			c.Title = "Arrival in " + dest
			c.Time = "14:00"
			c.Activities = []string{"Check in to accommodation", "Evening walk around " + dest}
		case day == days:
			c.Title = "Departure from " + dest
			c.Time = "10:00"
			c.Activities = []string{"Pack and check out", "Travel home"}
		default:
			n := len(profile.activities)
			c.Activities = []string{profile.activities[(i-1)%n], profile.activities[i%n]}
		}

		if hasStart {
			c.Date = start.AddDate(0, 0, i).Format(time.DateOnly)
		}
		cards[i] = c
	}
	return cards
}

func destinationLabel(trip domain.Trip) string {
	switch {
	case trip.DestinationCity != "" && trip.DestinationCountry != "":
		return trip.DestinationCity + ", " + trip.DestinationCountry
	case trip.DestinationCity != "":
		return trip.DestinationCity
	case trip.DestinationCountry != "":
		return trip.DestinationCountry
	default:
		return "your destination"
	}
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
