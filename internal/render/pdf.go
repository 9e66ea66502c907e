// Package render turns a trip's itinerary into a printable PDF.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/pkordes/tripplanner/internal/domain"
)

// ErrNoItinerary is returned when the trip has no cards to print.
var ErrNoItinerary = errors.New("trip has no itinerary")

const (
	qrSizePx = 256
	qrSizeMM = 32.0
	margin   = 15.0
)

// ItineraryPDF renders one section per card. When shareURL is not empty a QR
// code linking to it is printed on the first page.
func ItineraryPDF(trip domain.Trip, shareURL string) ([]byte, error) {
	if !trip.Itinerary.HasCards() {
		return nil, fmt.Errorf("render.ItineraryPDF: %w", ErrNoItinerary)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("Itinerary "+trip.ID, true)
	// Core fonts are cp1252; translate so accented destinations print correctly.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := tr

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, text(heading(trip)), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	if sub := summary(trip); sub != "" {
		pdf.CellFormat(0, 7, text(sub), "", 1, "L", false, 0, "")
	}

	if shareURL != "" {
		png, err := qrcode.Encode(shareURL, qrcode.Medium, qrSizePx)
		if err != nil {
			return nil, fmt.Errorf("render.ItineraryPDF: qr code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("share", opts, bytes.NewReader(png))
		pageW, _ := pdf.GetPageSize()
		pdf.ImageOptions("share", pageW-margin-qrSizeMM, margin, qrSizeMM, qrSizeMM, false, opts, 0, "")
		pdf.SetY(margin + qrSizeMM + 2)
	}
	pdf.Ln(4)

	var total float64
	for _, c := range trip.Itinerary.Cards {
		total += c.EstimatedCost
		writeCard(pdf, text, c)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Estimated total: %.2f", total), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render.ItineraryPDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCard(pdf *gofpdf.Fpdf, text func(string) string, c domain.Card) {
	title := fmt.Sprintf("Day %d: %s", c.Day, c.Title)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, text(title), "", 1, "L", false, 0, "")

	var meta []string
	if c.Date != "" {
		meta = append(meta, c.Date)
	}
	if c.Time != "" {
		meta = append(meta, c.Time)
	}
	if c.Location != "" {
		meta = append(meta, c.Location)
	}
	if c.EstimatedCost > 0 {
		meta = append(meta, fmt.Sprintf("~%.2f", c.EstimatedCost))
	}
	pdf.SetFont("Arial", "I", 10)
	if len(meta) > 0 {
		pdf.CellFormat(0, 6, text(strings.Join(meta, "  |  ")), "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Arial", "", 11)
	for _, a := range c.Activities {
		pdf.MultiCell(0, 6, text("- "+a), "", "L", false)
	}
	if c.Notes != "" {
		pdf.MultiCell(0, 6, text(c.Notes), "", "L", false)
	}
	pdf.Ln(3)
}

func heading(trip domain.Trip) string {
	switch {
	case trip.DestinationCity != "" && trip.DestinationCountry != "":
		return trip.DestinationCity + ", " + trip.DestinationCountry
	case trip.DestinationCity != "":
		return trip.DestinationCity
	case trip.DestinationCountry != "":
		return trip.DestinationCountry
	default:
		return "Trip " + trip.ID
	}
}

func summary(trip domain.Trip) string {
	var parts []string
	if trip.StartDate != "" {
		parts = append(parts, "from "+trip.StartDate)
	}
	if trip.TripLengthDays > 0 {
		parts = append(parts, fmt.Sprintf("%d days", trip.TripLengthDays))
	}
	if trip.Travelers > 0 {
		parts = append(parts, fmt.Sprintf("%d travelers", trip.Travelers))
	}
	if trip.Budget != "" {
		parts = append(parts, trip.Budget+" budget")
	}
	return strings.Join(parts, ", ")
}
