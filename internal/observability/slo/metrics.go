// Package slo tracks service-level objectives for the scheduled pipeline
// run cadence: how often a run completes successfully, and how long a
// run takes end to end.
package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run-cadence SLO targets.
const (
	// AvailabilitySLO is the target percentage of scheduled runs that
	// complete without error (99% = at most 1 in 100 failed runs).
	AvailabilitySLO = 99.0

	// RunDurationP95SLO is the target p95 run duration in seconds.
	RunDurationP95SLO = 300.0

	// RunDurationP99SLO is the target p99 run duration in seconds.
	RunDurationP99SLO = 900.0

	// ErrorRateSLO is the maximum acceptable fraction of runs ending
	// failed (5%).
	ErrorRateSLO = 0.05
)

var (
	// SLOAvailability tracks the current run-success ratio (0-1) over a
	// recent window of scheduled runs.
	SLOAvailability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "run_availability_ratio",
			Help: "Fraction of recent scheduled pipeline runs that completed successfully, target: 0.99",
		},
	)

	// SLORunDurationP95 tracks the current p95 run duration in seconds
	// over a recent window of runs.
	SLORunDurationP95 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "run_duration_p95_seconds",
			Help: "p95 pipeline run duration in seconds over a recent window, target: 300",
		},
	)

	// SLORunDurationP99 tracks the current p99 run duration in seconds
	// over a recent window of runs.
	SLORunDurationP99 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "run_duration_p99_seconds",
			Help: "p99 pipeline run duration in seconds over a recent window, target: 900",
		},
	)

	// SLOErrorRate tracks the current run failure ratio (0-1) over a
	// recent window of scheduled runs.
	SLOErrorRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "run_error_rate_ratio",
			Help: "Fraction of recent scheduled pipeline runs that failed, target: 0.05",
		},
	)
)

// UpdateAvailability sets the run-success ratio gauge. Call after each
// scheduled run with the ratio computed over a recent window of runs.
func UpdateAvailability(ratio float64) {
	SLOAvailability.Set(ratio)
}

// UpdateRunDurationP95 sets the p95 run duration gauge, in seconds.
func UpdateRunDurationP95(seconds float64) {
	SLORunDurationP95.Set(seconds)
}

// UpdateRunDurationP99 sets the p99 run duration gauge, in seconds.
func UpdateRunDurationP99(seconds float64) {
	SLORunDurationP99.Set(seconds)
}

// UpdateErrorRate sets the run failure ratio gauge.
func UpdateErrorRate(ratio float64) {
	SLOErrorRate.Set(ratio)
}
