package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics records per-template generation outcomes.
type FulfillmentMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "artifact_generation_duration_seconds",
		Help:    "Duration of artifact generation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"template"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "artifact_generation_success",
		Help: "Successful artifact generations.",
	}, []string{"template"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "artifact_generation_failure",
		Help: "Failed artifact generations.",
	}, []string{"template"})
	reg.MustRegister(duration, success, failure)
	return &FulfillmentMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the generation duration for the named template.
func (f *FulfillmentMetrics) ObserveDuration(template string, duration time.Duration) {
	if f == nil || f.duration == nil {
		return
	}
	f.duration.WithLabelValues(normalizeLabel(template)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named template.
func (f *FulfillmentMetrics) IncSuccess(template string) {
	if f == nil || f.success == nil {
		return
	}
	f.success.WithLabelValues(normalizeLabel(template)).Inc()
}

// IncFailure increments the failure counter for the named template.
func (f *FulfillmentMetrics) IncFailure(template string) {
	if f == nil || f.failure == nil {
		return
	}
	f.failure.WithLabelValues(normalizeLabel(template)).Inc()
}

func normalizeLabel(template string) string {
	if template == "" {
		return "unknown"
	}
	return template
}
