package repo

import (
	"context"
	"time"

	"github.com/pkordes/tripplanner/internal/domain"
)

// StoreRecorder receives one observation per store call.
// *metrics.Collector satisfies it.
type StoreRecorder interface {
	RecordStoreOp(op string, err error, d time.Duration)
}

// instrumentedTripRepo decorates a TripRepo with per-call metrics.
type instrumentedTripRepo struct {
	next TripRepo
	rec  StoreRecorder
}

// Instrument wraps next so every call is reported to rec.
func Instrument(next TripRepo, rec StoreRecorder) TripRepo {
	return &instrumentedTripRepo{next: next, rec: rec}
}

func (r *instrumentedTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	start := time.Now()
	out, err := r.next.Create(ctx, trip)
	r.rec.RecordStoreOp("create", err, time.Since(start))
	return out, err
}

func (r *instrumentedTripRepo) GetByID(ctx context.Context, id string) (domain.Trip, error) {
	start := time.Now()
	out, err := r.next.GetByID(ctx, id)
	r.rec.RecordStoreOp("get", err, time.Since(start))
	return out, err
}

func (r *instrumentedTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	start := time.Now()
	out, err := r.next.List(ctx)
	r.rec.RecordStoreOp("list", err, time.Since(start))
	return out, err
}

func (r *instrumentedTripRepo) Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	start := time.Now()
	out, err := r.next.Update(ctx, id, patch)
	r.rec.RecordStoreOp("update", err, time.Since(start))
	return out, err
}
