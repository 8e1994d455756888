package analyst

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder abstracts recording of per-analysis metrics so tests can
// inject a fake instead of touching the default Prometheus registry.
type MetricsRecorder interface {
	RecordDuration(provider string, d time.Duration)
	RecordExtractionState(provider, state string)
	RecordScoreTotal(provider string, total int)
}

// PrometheusMetrics is the production MetricsRecorder.
type PrometheusMetrics struct {
	duration        *prometheus.HistogramVec
	extractionState *prometheus.CounterVec
	scoreTotal      *prometheus.HistogramVec
}

var (
	prometheusInstance *PrometheusMetrics
	prometheusOnce     sync.Once
)

func getOrCreateHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		return promauto.NewHistogramVec(opts, labels)
	}
	return h
}

func getOrCreateCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		return promauto.NewCounterVec(opts, labels)
	}
	return c
}

// NewPrometheusMetrics returns the process-wide singleton metrics
// recorder, registering its collectors on first use.
func NewPrometheusMetrics() *PrometheusMetrics {
	prometheusOnce.Do(func() {
		prometheusInstance = &PrometheusMetrics{
			duration: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "pain_radar_analyst_duration_seconds",
				Help:    "Time taken for one LLM analysis call",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}, []string{"provider"}),
			extractionState: getOrCreateCounterVec(prometheus.CounterOpts{
				Name: "pain_radar_analyst_extraction_state_total",
				Help: "Count of analyses by resulting extraction_state",
			}, []string{"provider", "state"}),
			scoreTotal: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "pain_radar_analyst_score_total",
				Help:    "Distribution of total scores for extracted signals",
				Buckets: []float64{5, 10, 15, 20, 25, 30, 35, 40, 45, 50},
			}, []string{"provider"}),
		}
	})
	return prometheusInstance
}

func (p *PrometheusMetrics) RecordDuration(provider string, d time.Duration) {
	p.duration.WithLabelValues(provider).Observe(d.Seconds())
}

func (p *PrometheusMetrics) RecordExtractionState(provider, state string) {
	p.extractionState.WithLabelValues(provider, state).Inc()
}

func (p *PrometheusMetrics) RecordScoreTotal(provider string, total int) {
	p.scoreTotal.WithLabelValues(provider).Observe(float64(total))
}
