package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records metadata for bundle sync passes against the Shopify Admin API.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	apiCalls *prometheus.HistogramVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bundle_sync_duration_seconds",
		Help:    "Duration of bundle sync passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"family", "operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bundle_sync_success",
		Help: "Successful bundle sync passes.",
	}, []string{"family", "operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bundle_sync_failure",
		Help: "Failed bundle sync passes.",
	}, []string{"family", "operation"})
	apiCalls := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopify_api_call_duration_seconds",
		Help:    "Duration of Shopify Admin API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(duration, success, failure, apiCalls)
	return &SyncMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		apiCalls: apiCalls,
	}
}

// ObserveSync records the duration for a sync pass.
func (s *SyncMetrics) ObserveSync(family, operation string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(family), normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for a sync pass.
func (s *SyncMetrics) IncSuccess(family, operation string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(family), normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for a sync pass.
func (s *SyncMetrics) IncFailure(family, operation string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(family), normalizeLabel(operation)).Inc()
}

// ObserveAPICall records the duration of a single Admin API call.
func (s *SyncMetrics) ObserveAPICall(operation string, duration time.Duration) {
	if s == nil || s.apiCalls == nil {
		return
	}
	s.apiCalls.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
