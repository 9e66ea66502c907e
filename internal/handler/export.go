package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/tripplanner/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "destination_country", "destination_city", "start_date",
	"budget", "travelers", "billing_status",
	"card_id", "day", "date", "title", "time", "location",
	"activities", "estimated_cost", "notes",
}

// GetExport handles GET /export.
// It returns a flat table of every trip and itinerary card the caller may edit.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", err.Error()))
		return
	}
	if format != nil && *format != "csv" && *format != "json" {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_argument", "format must be csv or json"))
		return
	}

	rows, err := s.trips.Export(r.Context())
	if err != nil {
		s.writeError(w, r, "export", err)
		return
	}

	if format != nil && *format == "csv" {
		body := buildCSV(rows)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="trips.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = body.WriteTo(w)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// buildCSV encodes rows as CSV. Activities within a row are pipe-separated
// ("|") to keep each card on a single CSV line.
func buildCSV(rows []domain.ExportRow) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// bytes.Buffer.Write never returns an error.
	_ = w.Write(csvHeaders)
	for _, r := range rows {
		_ = w.Write(csvRecord(r))
	}
	w.Flush()
	return &buf
}

// csvRecord encodes a domain.ExportRow as a flat string slice.
// Zero numbers on card-less rows are written as empty cells.
func csvRecord(r domain.ExportRow) []string {
	return []string{
		r.TripID,
		r.DestinationCountry,
		r.DestinationCity,
		r.StartDate,
		r.Budget,
		optionalInt(r.Travelers),
		string(r.BillingStatus),
		r.CardID,
		optionalInt(r.Day),
		r.Date,
		r.Title,
		r.Time,
		r.Location,
		strings.Join(r.Activities, "|"),
		formatCost(r),
		r.Notes,
	}
}

func optionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatCost(r domain.ExportRow) string {
	if r.CardID == "" {
		return ""
	}
	return strconv.FormatFloat(r.EstimatedCost, 'f', 2, 64)
}
