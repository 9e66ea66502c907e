package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// trip (or a card inside its itinerary) does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrInvalidArgument is returned when a caller passes a structurally invalid
// argument: an update payload that is not a JSON object, a missing id, or a
// card without an id handed to the patch engine.
// Handlers should map this to HTTP 400 Bad Request.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. trip length out of range, unknown billing status).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrStorage is returned by repo functions when the underlying persistence
// layer fails (filesystem read/write, database round trip). A collection file
// that does not exist yet is not a storage failure.
// Handlers should map this to HTTP 500.
var ErrStorage = errors.New("storage failure")

// ErrForbidden is returned by service functions when the acting user is not
// allowed to mutate the trip.
// Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")
