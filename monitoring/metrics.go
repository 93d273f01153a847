package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lockOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slot_lock_operations_total",
			Help: "Slot lock operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	activeLocks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slot_locks_active",
			Help: "Live slot locks as of the last reaper sweep",
		},
	)

	reapedLocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slot_locks_reaped_total",
			Help: "Expired slot lock entries removed by the reaper",
		},
	)

	reaperSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slot_lock_sweep_duration_seconds",
			Help:    "Duration of reaper sweeps",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	bookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking lifecycle transitions by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	availabilityRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "availability_request_duration_seconds",
			Help:    "Duration of day-grid availability reads",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"scope"},
	)
)

// TrackLockOperation records an acquire/renew/release attempt and how it
// ended ("ok", "contended", "invalid", "error").
func TrackLockOperation(operation, outcome string) {
	lockOperations.WithLabelValues(operation, outcome).Inc()
}

// TrackBookingTransition records a lifecycle event attempt ("create",
// "cancel", ...) and its outcome ("ok", "rejected", "error").
func TrackBookingTransition(event, outcome string) {
	bookingTransitions.WithLabelValues(event, outcome).Inc()
}

// TrackSweep records one reaper pass.
func TrackSweep(removed, live int, elapsed time.Duration) {
	reapedLocks.Add(float64(removed))
	activeLocks.Set(float64(live))
	reaperSweepDuration.Observe(elapsed.Seconds())
}

// TrackAvailabilityRead records a day-grid read ("facility" or "court").
func TrackAvailabilityRead(scope string, elapsed time.Duration) {
	availabilityRequests.WithLabelValues(scope).Observe(elapsed.Seconds())
}
