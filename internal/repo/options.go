package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripplanner/internal/domain"
)

// tripIDLength is the length of generated trip ids.
const tripIDLength = 10

// maxIDAttempts bounds the collision retry loop when allocating an id.
const maxIDAttempts = 16

var errIDSpaceExhausted = fmt.Errorf("%w: could not allocate a unique trip id", domain.ErrStorage)

// NewTripID returns a short random trip id: the first ten hex digits of a
// random (version 4) UUID, all of which are random bits.
func NewTripID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:tripIDLength]
}

// Option customises a TripRepo. Tests use it to pin the clock and the id source.
type Option func(*options)

type options struct {
	clock func() time.Time
	newID func() string
}

// WithClock overrides the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithIDGenerator overrides the id source. Generated ids are still checked
// for collisions against the stored collection.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

func newOptions(opts []Option) options {
	o := options{clock: time.Now, newID: NewTripID}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// now returns the current store time in UTC at microsecond precision.
func (o options) now() time.Time {
	return timestamp(o.clock())
}
