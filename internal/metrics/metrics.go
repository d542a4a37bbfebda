// Package metrics exposes Prometheus collectors for occupancy operations.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"hostel-backend/internal/apperr"
)

// Recorder counts engine and lifecycle outcomes. A nil *Recorder is valid and records nothing.
type Recorder struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	inconsistent  prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostel",
			Name:      "operations_total",
			Help:      "Occupancy and request operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hostel",
			Name:      "operation_duration_seconds",
			Help:      "Latency of occupancy and request operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostel",
			Name:      "notifications_total",
			Help:      "Notifications and push deliveries by outcome.",
		}, []string{"channel", "outcome"}),
		inconsistent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hostel",
			Name:      "inconsistent_rooms",
			Help:      "Rooms whose stored occupancy or status disagreed with the occupant set at the last audit.",
		}),
	}
	reg.MustRegister(r.operations, r.duration, r.notifications, r.inconsistent)
	return r
}

// Observe records one finished operation.
func (r *Recorder) Observe(operation string, start time.Time, err error) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, Outcome(err)).Inc()
	r.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Notification records a delivery attempt on channel ("store" or "push").
func (r *Recorder) Notification(channel string, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.notifications.WithLabelValues(channel, outcome).Inc()
}

// InconsistentRooms sets the result of the latest audit pass.
func (r *Recorder) InconsistentRooms(n int) {
	if r == nil {
		return
	}
	r.inconsistent.Set(float64(n))
}

// Outcome maps an error onto a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrValidation):
		return "validation"
	case errors.Is(err, apperr.ErrInconsistency):
		return "inconsistency"
	case errors.Is(err, apperr.ErrForbidden):
		return "forbidden"
	}
	return "error"
}
