package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TripPatch is a partial update to a trip. Each known field is an Optional:
// present keys fully replace the stored value, absent keys leave it alone.
// Attributes holds pass-through keys, each replacing the stored attribute of
// the same name.
type TripPatch struct {
	OwnerID            Optional[string]
	DestinationCountry Optional[string]
	DestinationCity    Optional[string]
	StartDate          Optional[string]
	TripLengthDays     Optional[int]
	Budget             Optional[string]
	Travelers          Optional[int]
	BillingStatus      Optional[BillingStatus]
	Published          Optional[bool]
	Itinerary          Optional[*Itinerary]
	Attributes         map[string]any
}

// IsEmpty reports whether the patch carries no changes.
func (p TripPatch) IsEmpty() bool {
	return !p.OwnerID.IsSet() &&
		!p.DestinationCountry.IsSet() &&
		!p.DestinationCity.IsSet() &&
		!p.StartDate.IsSet() &&
		!p.TripLengthDays.IsSet() &&
		!p.Budget.IsSet() &&
		!p.Travelers.IsSet() &&
		!p.BillingStatus.IsSet() &&
		!p.Published.IsSet() &&
		!p.Itinerary.IsSet() &&
		len(p.Attributes) == 0
}

// ParseTripPatch decodes a JSON update payload.
// Returns ErrInvalidArgument if data is not a JSON object or a known field has
// the wrong type. The server-owned keys id, createdAt and updatedAt are ignored.
func ParseTripPatch(data []byte) (TripPatch, error) {
	var p TripPatch
	if err := p.UnmarshalJSON(data); err != nil {
		return TripPatch{}, err
	}
	return p, nil
}

// UnmarshalJSON implements json.Unmarshaler; see ParseTripPatch.
func (p *TripPatch) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: update payload must be a JSON object", ErrInvalidArgument)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	out := TripPatch{}
	for key, raw := range fields {
		var err error
		switch key {
		case "id", "createdAt", "updatedAt":
			continue
		case "ownerId":
			err = decodeOptional(raw, &out.OwnerID)
		case "destinationCountry":
			err = decodeOptional(raw, &out.DestinationCountry)
		case "destinationCity":
			err = decodeOptional(raw, &out.DestinationCity)
		case "startDate":
			err = decodeOptional(raw, &out.StartDate)
		case "tripLengthDays":
			err = decodeOptional(raw, &out.TripLengthDays)
		case "budget":
			err = decodeOptional(raw, &out.Budget)
		case "travelers":
			err = decodeOptional(raw, &out.Travelers)
		case "billingStatus":
			err = decodeOptional(raw, &out.BillingStatus)
		case "published":
			err = decodeOptional(raw, &out.Published)
		case "itinerary":
			err = decodeOptional(raw, &out.Itinerary)
		default:
			var v any
			v, err = decodeAny(raw)
			if err == nil {
				if out.Attributes == nil {
					out.Attributes = make(map[string]any)
				}
				out.Attributes[key] = v
			}
		}
		if err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrInvalidArgument, key, err)
		}
	}
	*p = out
	return nil
}

// decodeOptional decodes raw into dst and marks it set. A JSON null sets the
// type's zero value, which is how callers clear a field.
func decodeOptional[T any](raw json.RawMessage, dst *Optional[T]) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = Some(v)
	return nil
}
