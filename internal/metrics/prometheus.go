package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice client
type Metrics struct {
	// Turn metrics
	TurnsStarted   prometheus.Counter
	TurnsCompleted prometheus.Counter
	TurnsFailed    *prometheus.CounterVec
	TurnDuration   prometheus.Histogram

	// Capture metrics
	RecordingsDiscarded *prometheus.CounterVec
	RecordingDuration   prometheus.Histogram

	// Backend metrics
	RequestDuration prometheus.Histogram
	BackendErrors   *prometheus.CounterVec
	StageLatency    *prometheus.HistogramVec

	// Conversation metrics
	ConversationResets prometheus.Counter

	// Playback metrics
	PlaybackFailures prometheus.Counter
}

// NewMetrics creates and registers all metrics on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates and registers all metrics on the given registry
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Turn metrics
		TurnsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "orbe_turns_started_total",
			Help: "Total number of voice turns started",
		}),
		TurnsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "orbe_turns_completed_total",
			Help: "Total number of voice turns completed successfully",
		}),
		TurnsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orbe_turns_failed_total",
			Help: "Total number of voice turns that ended in an error",
		}, []string{"reason"}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "orbe_turn_duration_seconds",
			Help:    "End-to-end duration of voice turns",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~8 minutes
		}),

		// Capture metrics
		RecordingsDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orbe_recordings_discarded_total",
			Help: "Total number of recordings discarded before transmission",
		}, []string{"reason"}),
		RecordingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "orbe_recording_duration_seconds",
			Help:    "Duration of finalized recordings",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s to ~30s
		}),

		// Backend metrics
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "orbe_backend_request_duration_seconds",
			Help:    "Duration of voice processing requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		BackendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orbe_backend_errors_total",
			Help: "Total number of backend errors by classified kind",
		}, []string{"kind"}),
		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orbe_backend_stage_latency_seconds",
			Help:    "Backend-reported per-stage processing latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~1 minute
		}, []string{"stage"}),

		// Conversation metrics
		ConversationResets: factory.NewCounter(prometheus.CounterOpts{
			Name: "orbe_conversation_resets_total",
			Help: "Total number of local conversation id resets",
		}),

		// Playback metrics
		PlaybackFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "orbe_playback_failures_total",
			Help: "Total number of response playback failures",
		}),
	}
}

// RecordTurnStarted increments the turns started counter
func (m *Metrics) RecordTurnStarted() {
	m.TurnsStarted.Inc()
}

// RecordTurnCompleted records a successful turn and its duration
func (m *Metrics) RecordTurnCompleted(durationSeconds float64) {
	m.TurnsCompleted.Inc()
	m.TurnDuration.Observe(durationSeconds)
}

// RecordTurnFailed records a failed turn with its failure reason
func (m *Metrics) RecordTurnFailed(reason string) {
	m.TurnsFailed.WithLabelValues(reason).Inc()
}

// RecordRecordingDiscarded records a recording dropped before transmission
func (m *Metrics) RecordRecordingDiscarded(reason string) {
	m.RecordingsDiscarded.WithLabelValues(reason).Inc()
}

// RecordRecording records the duration of a finalized recording
func (m *Metrics) RecordRecording(durationSeconds float64) {
	m.RecordingDuration.Observe(durationSeconds)
}

// RecordRequest records the duration of a backend request
func (m *Metrics) RecordRequest(durationSeconds float64) {
	m.RequestDuration.Observe(durationSeconds)
}

// RecordBackendError increments the backend errors counter for a kind
func (m *Metrics) RecordBackendError(kind string) {
	m.BackendErrors.WithLabelValues(kind).Inc()
}

// RecordStageLatency records a backend-reported stage latency
func (m *Metrics) RecordStageLatency(stage string, seconds float64) {
	m.StageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordConversationReset increments the conversation resets counter
func (m *Metrics) RecordConversationReset() {
	m.ConversationResets.Inc()
}

// RecordPlaybackFailure increments the playback failures counter
func (m *Metrics) RecordPlaybackFailure() {
	m.PlaybackFailures.Inc()
}
