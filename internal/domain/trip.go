// Package domain contains the core data types for the trip planner.
// This package has zero external dependencies and is imported by every other
// internal package (repo, itinerary, service, handler).
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// BillingStatus is the payment state of a trip, driven by payment events.
type BillingStatus string

const (
	BillingUnpaid   BillingStatus = "unpaid"
	BillingPending  BillingStatus = "pending"
	BillingPaid     BillingStatus = "paid"
	BillingRefunded BillingStatus = "refunded"
	BillingFailed   BillingStatus = "failed"
)

// Valid reports whether s is one of the known billing states.
func (s BillingStatus) Valid() bool {
	switch s {
	case BillingUnpaid, BillingPending, BillingPaid, BillingRefunded, BillingFailed:
		return true
	}
	return false
}

// Trip is a user-generated travel plan and the root persisted entity.
// ID, CreatedAt and UpdatedAt are owned by the store; everything else is
// supplied by callers. Attributes carries caller-defined keys the store does
// not interpret; on the wire they are inlined next to the known fields.
type Trip struct {
	ID                 string
	OwnerID            string
	DestinationCountry string
	DestinationCity    string
	StartDate          string // "2006-01-02", empty when unknown
	TripLengthDays     int
	Budget             string // budget tier: "budget", "moderate", "luxury"
	Travelers          int
	BillingStatus      BillingStatus
	Published          bool
	Itinerary          *Itinerary // nil until generated
	Attributes         map[string]any
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// tripDocument is the JSON shape of a trip's known fields.
type tripDocument struct {
	ID                 string        `json:"id"`
	OwnerID            string        `json:"ownerId,omitempty"`
	DestinationCountry string        `json:"destinationCountry,omitempty"`
	DestinationCity    string        `json:"destinationCity,omitempty"`
	StartDate          string        `json:"startDate,omitempty"`
	TripLengthDays     int           `json:"tripLengthDays,omitempty"`
	Budget             string        `json:"budget,omitempty"`
	Travelers          int           `json:"travelers,omitempty"`
	BillingStatus      BillingStatus `json:"billingStatus,omitempty"`
	Published          bool          `json:"published"`
	Itinerary          *Itinerary    `json:"itinerary,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// tripKeys is the set of top-level JSON keys backed by typed Trip fields.
// Any other key is a pass-through attribute.
var tripKeys = map[string]struct{}{
	"id": {}, "ownerId": {}, "destinationCountry": {}, "destinationCity": {},
	"startDate": {}, "tripLengthDays": {}, "budget": {}, "travelers": {},
	"billingStatus": {}, "published": {}, "itinerary": {},
	"createdAt": {}, "updatedAt": {},
}

// MarshalJSON writes the known fields and inlines Attributes at the top level.
// Attribute keys that collide with a known field are dropped.
func (t Trip) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(tripDocument{
		ID:                 t.ID,
		OwnerID:            t.OwnerID,
		DestinationCountry: t.DestinationCountry,
		DestinationCity:    t.DestinationCity,
		StartDate:          t.StartDate,
		TripLengthDays:     t.TripLengthDays,
		Budget:             t.Budget,
		Travelers:          t.Travelers,
		BillingStatus:      t.BillingStatus,
		Published:          t.Published,
		Itinerary:          t.Itinerary,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	if len(t.Attributes) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(t.Attributes)+len(tripKeys))
	for k, v := range t.Attributes {
		if _, reserved := tripKeys[k]; reserved {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		merged[k] = raw
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	maps.Copy(merged, fields)
	return json.Marshal(merged)
}

// UnmarshalJSON reads the known fields and collects every other top-level key
// into Attributes. Numbers in attributes are kept as json.Number so they are
// written back exactly as they were read.
func (t *Trip) UnmarshalJSON(data []byte) error {
	var doc tripDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*t = Trip{
		ID:                 doc.ID,
		OwnerID:            doc.OwnerID,
		DestinationCountry: doc.DestinationCountry,
		DestinationCity:    doc.DestinationCity,
		StartDate:          doc.StartDate,
		TripLengthDays:     doc.TripLengthDays,
		Budget:             doc.Budget,
		Travelers:          doc.Travelers,
		BillingStatus:      doc.BillingStatus,
		Published:          doc.Published,
		Itinerary:          doc.Itinerary,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
	for k, raw := range fields {
		if _, known := tripKeys[k]; known {
			continue
		}
		v, err := decodeAny(raw)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", k, err)
		}
		if t.Attributes == nil {
			t.Attributes = make(map[string]any)
		}
		t.Attributes[k] = v
	}
	return nil
}

// Normalize returns t exactly as it reads back after a JSON round trip:
// attribute numbers become json.Number and attribute keys that collide with
// a known field are removed. Stores return normalized records so a create or
// update result equals a later read.
func (t Trip) Normalize() (Trip, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return Trip{}, fmt.Errorf("domain.Trip.Normalize: %w", err)
	}
	var out Trip
	if err := json.Unmarshal(data, &out); err != nil {
		return Trip{}, fmt.Errorf("domain.Trip.Normalize: %w", err)
	}
	return out, nil
}

// Clone returns a copy of t that shares no mutable state with it.
// Attribute values are copied shallowly; they are treated as immutable.
func (t Trip) Clone() Trip {
	out := t
	out.Itinerary = t.Itinerary.Clone()
	if t.Attributes != nil {
		out.Attributes = maps.Clone(t.Attributes)
	}
	return out
}

// Apply returns a copy of t with every field present in p replacing the
// corresponding field. Fields absent from p keep their prior value.
// ID, CreatedAt and UpdatedAt are never touched; the store stamps UpdatedAt.
func (t Trip) Apply(p TripPatch) Trip {
	out := t.Clone()
	out.OwnerID = p.OwnerID.Or(t.OwnerID)
	out.DestinationCountry = p.DestinationCountry.Or(t.DestinationCountry)
	out.DestinationCity = p.DestinationCity.Or(t.DestinationCity)
	out.StartDate = p.StartDate.Or(t.StartDate)
	out.TripLengthDays = p.TripLengthDays.Or(t.TripLengthDays)
	out.Budget = p.Budget.Or(t.Budget)
	out.Travelers = p.Travelers.Or(t.Travelers)
	out.BillingStatus = p.BillingStatus.Or(t.BillingStatus)
	out.Published = p.Published.Or(t.Published)
	if it, ok := p.Itinerary.Get(); ok {
		out.Itinerary = it.Clone()
	}
	for k, v := range p.Attributes {
		if _, reserved := tripKeys[k]; reserved {
			continue
		}
		if out.Attributes == nil {
			out.Attributes = make(map[string]any, len(p.Attributes))
		}
		out.Attributes[k] = v
	}
	return out
}

// decodeAny decodes a raw JSON value into the generic any representation,
// keeping numbers as json.Number.
func decodeAny(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
