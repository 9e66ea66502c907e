// Package metrics collects and exposes Prometheus metrics for the trip planner.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/tripplanner/internal/domain"
)

// Outcome labels for store operations.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeStorage  = "storage_error"
	OutcomeError    = "error"
)

// Collector records store and itinerary metrics into a Prometheus registry.
type Collector struct {
	storeOps     *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
	cardPatches  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripplanner_store_operations_total",
			Help: "Trip store operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripplanner_store_operation_seconds",
			Help:    "Trip store operation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		cardPatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripplanner_card_patches_total",
			Help: "Itinerary card patch requests by result (applied or noop).",
		}, []string{"result"}),
	}

	reg.MustRegister(c.storeOps, c.storeLatency, c.cardPatches)
	return c
}

// RecordStoreOp records one store call.
func (c *Collector) RecordStoreOp(op string, err error, d time.Duration) {
	c.storeOps.WithLabelValues(op, Outcome(err)).Inc()
	c.storeLatency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordCardPatch records whether a card patch changed the card.
func (c *Collector) RecordCardPatch(applied bool) {
	result := "noop"
	if applied {
		result = "applied"
	}
	c.cardPatches.WithLabelValues(result).Inc()
}

// Outcome classifies err into one of the Outcome* labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrStorage):
		return OutcomeStorage
	default:
		return OutcomeError
	}
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
