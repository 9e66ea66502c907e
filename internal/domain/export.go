package domain

// ExportRow is a single row in the itinerary export.
// It is a flat, denormalized view: one row per card, with trip fields repeated
// for every card on that trip. Trips without an itinerary yield one row with
// zero values for all card fields.
type ExportRow struct {
	// Trip fields, repeated for every card on the trip.
	TripID             string        `json:"tripId"`
	DestinationCountry string        `json:"destinationCountry,omitempty"`
	DestinationCity    string        `json:"destinationCity,omitempty"`
	StartDate          string        `json:"startDate,omitempty"`
	Budget             string        `json:"budget,omitempty"`
	Travelers          int           `json:"travelers,omitempty"`
	BillingStatus      BillingStatus `json:"billingStatus,omitempty"`

	// Card fields; zero values when the trip has no itinerary.
	CardID        string   `json:"cardId,omitempty"`
	Day           int      `json:"day,omitempty"`
	Date          string   `json:"date,omitempty"`
	Title         string   `json:"title,omitempty"`
	Time          string   `json:"time,omitempty"`
	Location      string   `json:"location,omitempty"`
	Activities    []string `json:"activities,omitempty"`
	EstimatedCost float64  `json:"estimatedCost,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// ExportRows flattens one trip into export rows.
func ExportRows(t Trip) []ExportRow {
	base := ExportRow{
		TripID:             t.ID,
		DestinationCountry: t.DestinationCountry,
		DestinationCity:    t.DestinationCity,
		StartDate:          t.StartDate,
		Budget:             t.Budget,
		Travelers:          t.Travelers,
		BillingStatus:      t.BillingStatus,
	}
	if !t.Itinerary.HasCards() {
		return []ExportRow{base}
	}

	rows := make([]ExportRow, 0, len(t.Itinerary.Cards))
	for _, c := range t.Itinerary.Cards {
		row := base
		row.CardID = c.ID
		row.Day = c.Day
		row.Date = c.Date
		row.Title = c.Title
		row.Time = c.Time
		row.Location = c.Location
		row.Activities = append([]string(nil), c.Activities...)
		row.EstimatedCost = c.EstimatedCost
		row.Notes = c.Notes
		rows = append(rows, row)
	}
	return rows
}
