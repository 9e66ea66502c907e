// Package itinerary is the patch engine for itinerary cards. It normalizes
// client field edits, applies them to a single card and builds the default
// itinerary for a trip. Everything here is pure: no I/O, no persistence, no
// shared mutable state.
package itinerary

import (
	"encoding/json"
	"html"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pkordes/tripplanner/internal/domain"
)

// Editable card fields, by their JSON name.
const (
	FieldTitle         = "title"
	FieldNotes         = "notes"
	FieldTime          = "time"
	FieldLocation      = "location"
	FieldActivities    = "activities"
	FieldEstimatedCost = "estimatedCost"
)

// EditableFields lists every field a client may change on a card.
var EditableFields = []string{
	FieldTitle, FieldNotes, FieldTime, FieldLocation, FieldActivities, FieldEstimatedCost,
}

const (
	maxTitleLen      = 120
	maxNotesLen      = 2000
	maxLocationLen   = 200
	maxActivities    = 20
	maxActivityLen   = 120
	timeOfDayLayout  = "15:04"
	costCentsPerUnit = 100
)

// strictText strips all markup. Its output is HTML-escaped, so plainText
// unescapes it before storing.
var strictText = bluemonday.StrictPolicy()

// maxPlainTextPasses bounds plainText on inputs with nested escaping.
const maxPlainTextPasses = 8

// CardUpdate is a normalized set of card field edits. Only set fields are
// applied; a set field may hold the zero value to clear it.
type CardUpdate struct {
	Title         domain.Optional[string]
	Notes         domain.Optional[string]
	Time          domain.Optional[string]
	Location      domain.Optional[string]
	Activities    domain.Optional[[]string]
	EstimatedCost domain.Optional[float64]
}

// IsEmpty reports whether the update would leave any card unchanged.
func (u CardUpdate) IsEmpty() bool {
	return !u.Title.IsSet() &&
		!u.Notes.IsSet() &&
		!u.Time.IsSet() &&
		!u.Location.IsSet() &&
		!u.Activities.IsSet() &&
		!u.EstimatedCost.IsSet()
}

// Fields returns the update as a raw field map keyed by JSON field name.
// NormalizeFieldUpdates(u.Fields()) == u for any normalized u.
func (u CardUpdate) Fields() map[string]any {
	out := make(map[string]any)
	if v, ok := u.Title.Get(); ok {
		out[FieldTitle] = v
	}
	if v, ok := u.Notes.Get(); ok {
		out[FieldNotes] = v
	}
	if v, ok := u.Time.Get(); ok {
		out[FieldTime] = v
	}
	if v, ok := u.Location.Get(); ok {
		out[FieldLocation] = v
	}
	if v, ok := u.Activities.Get(); ok {
		out[FieldActivities] = slices.Clone(v)
	}
	if v, ok := u.EstimatedCost.Get(); ok {
		out[FieldEstimatedCost] = v
	}
	return out
}

// NormalizeFieldUpdates keeps only the recognized editable fields of raw and
// coerces each value to its canonical shape. Unknown keys (including "id")
// and values that cannot be coerced are dropped; this never fails.
//
//   - title: text, markup stripped, trimmed, 1..120 characters
//   - notes, location: text or null (null clears)
//   - time: "H:MM" or "HH:MM" on a 24h clock, written as "HH:MM"; "" or null clears
//   - activities: list of text entries, blanks removed, at most 20
//   - estimatedCost: non-negative number (or numeric string), rounded to cents
func NormalizeFieldUpdates(raw map[string]any) CardUpdate {
	var u CardUpdate
	for key, v := range raw {
		switch key {
		case FieldTitle:
			if s, ok := normalizeText(v, maxTitleLen); ok && s != "" {
				u.Title = domain.Some(s)
			}
		case FieldNotes:
			if s, ok := normalizeClearableText(v, maxNotesLen); ok {
				u.Notes = domain.Some(s)
			}
		case FieldLocation:
			if s, ok := normalizeClearableText(v, maxLocationLen); ok {
				u.Location = domain.Some(s)
			}
		case FieldTime:
			if s, ok := normalizeTime(v); ok {
				u.Time = domain.Some(s)
			}
		case FieldActivities:
			if list, ok := normalizeActivities(v); ok {
				u.Activities = domain.Some(list)
			}
		case FieldEstimatedCost:
			if c, ok := normalizeCost(v); ok {
				u.EstimatedCost = domain.Some(c)
			}
		}
	}
	return u
}

// plainText strips markup and decodes entities until the text no longer
// changes. Text that is still changing after maxPlainTextPasses is refused.
func plainText(s string) (string, bool) {
	for pass := 0; pass < maxPlainTextPasses; pass++ {
		next := strings.TrimSpace(html.UnescapeString(strictText.Sanitize(s)))
		if next == s {
			return s, true
		}
		s = next
	}
	return "", false
}

// normalizeText coerces scalars to plain, trimmed text with markup removed.
// Text longer than limit is rejected rather than truncated, so a second pass
// over the result sees the same string.
func normalizeText(v any, limit int) (string, bool) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return "", false
	}
	s, ok := plainText(s)
	if !ok || utf8.RuneCountInString(s) > limit {
		return "", false
	}
	return s, true
}

func normalizeClearableText(v any, limit int) (string, bool) {
	if v == nil {
		return "", true
	}
	return normalizeText(v, limit)
}

func normalizeTime(v any) (string, bool) {
	if v == nil {
		return "", true
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return "", false
	}
	return t.Format(timeOfDayLayout), true
}

func normalizeActivities(v any) ([]string, bool) {
	var items []any
	switch x := v.(type) {
	case nil:
		return []string{}, true
	case []any:
		items = x
	case []string:
		items = make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
	default:
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s, ok = normalizeText(s, maxActivityLen)
		if !ok || s == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) > maxActivities {
		return nil, false
	}
	return out, true
}

func normalizeCost(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return roundCents(f), true
}

func roundCents(f float64) float64 {
	return math.Round(f*costCentsPerUnit) / costCentsPerUnit
}
