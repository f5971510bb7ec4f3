// Package metrics exposes Prometheus instrumentation for angle grid passes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pixelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satangles_pixels_total",
			Help: "Pixels processed, by solver status.",
		},
		[]string{"status"},
	)

	trackCentrePixelsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "satangles_track_centre_pixels_total",
			Help: "Pixels flagged by the track-edge predicate and added to row accumulators.",
		},
	)

	rowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "satangles_rows_total",
			Help: "Raster rows completed.",
		},
	)

	passDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satangles_pass_duration_seconds",
			Help:    "Duration of a full grid pass in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"outcome"},
	)

	workers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satangles_workers",
			Help: "Worker goroutines configured for grid passes.",
		},
	)
)

func init() {
	prometheus.MustRegister(pixelsTotal)
	prometheus.MustRegister(trackCentrePixelsTotal)
	prometheus.MustRegister(rowsTotal)
	prometheus.MustRegister(passDurationSeconds)
	prometheus.MustRegister(workers)
}

// RecordPixels adds n pixels finished with the given status label.
func RecordPixels(status string, n int) {
	if n > 0 {
		pixelsTotal.WithLabelValues(status).Add(float64(n))
	}
}

// RecordTrackCentre adds n flagged pixels.
func RecordTrackCentre(n int) {
	if n > 0 {
		trackCentrePixelsTotal.Add(float64(n))
	}
}

// RecordRow counts one completed row.
func RecordRow() {
	rowsTotal.Inc()
}

// ObservePass records the duration of a grid pass. outcome is "complete" or
// "cancelled".
func ObservePass(outcome string, d time.Duration) {
	passDurationSeconds.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetWorkers records the configured worker count.
func SetWorkers(n int) {
	workers.Set(float64(n))
}
