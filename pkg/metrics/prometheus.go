// Package metrics provides Prometheus metrics for the repcoach service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default histogram buckets, in milliseconds. Latency buckets stop at
// about two frames at 30fps.
var (
	defaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 33, 50}
	defaultHTTPBuckets    = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000}
)

// Manager manages all Prometheus metrics for the repcoach service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	httpBuckets    []float64
	enabled        bool
	constLabels    map[string]string
	metricPrefix   string
	registry       prometheus.Registerer

	// Frame pipeline
	framesProcessed *prometheus.CounterVec
	frameLatency    prometheus.Histogram
	framesRejected  prometheus.Counter

	// Exercise outcomes
	repsCounted   *prometheus.CounterVec
	trackingLost  *prometheus.CounterVec
	formErrors    *prometheus.CounterVec
	mismatches    *prometheus.CounterVec
	vSignDetected prometheus.Counter

	// Calibration
	calibrationsCompleted  prometheus.Counter
	calibrationsDegenerate prometheus.Counter
	calibrationsSkipped    prometheus.Counter

	// Form classifier
	classifierChecks  *prometheus.CounterVec
	classifierLatency prometheus.Histogram

	// Sessions
	activeSessions   prometheus.Gauge
	sessionsStarted  prometheus.Counter
	sessionsStopped  prometheus.Counter
	streamClients    prometheus.Gauge
	sessionDurations prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "repcoach",
		subsystem:      "engine",
		latencyBuckets: defaultLatencyBuckets,
		httpBuckets:    defaultHTTPBuckets,
		enabled:        true,
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	if !m.enabled {
		// Metrics still exist so callers never nil-check; they are just not exported.
		auto = promauto.With(nil)
	}

	m.framesProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("frames_processed_total"),
		Help:        "Total number of frames processed by session phase",
		ConstLabels: m.constLabels,
	}, []string{"phase"})

	m.frameLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("frame_latency_milliseconds"),
		Help:        "Per-frame processing latency in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	})

	m.framesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("frames_rejected_total"),
		Help:        "Total number of malformed frames rejected at the boundary",
		ConstLabels: m.constLabels,
	})

	m.repsCounted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("reps_counted_total"),
		Help:        "Total number of repetitions counted by limb",
		ConstLabels: m.constLabels,
	}, []string{"limb"})

	m.trackingLost = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("tracking_lost_total"),
		Help:        "Total number of frames in which a limb could not be measured",
		ConstLabels: m.constLabels,
	}, []string{"limb"})

	m.formErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("form_errors_total"),
		Help:        "Total number of bad-form episodes by limb",
		ConstLabels: m.constLabels,
	}, []string{"limb"})

	m.mismatches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("exercise_mismatches_total"),
		Help:        "Total number of frames contradicting the expected exercise by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.vSignDetected = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("vsign_frames_total"),
		Help:        "Total number of frames showing a V-sign gesture",
		ConstLabels: m.constLabels,
	})

	m.calibrationsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("calibrations_completed_total"),
		Help:        "Total number of completed calibrations",
		ConstLabels: m.constLabels,
	})

	m.calibrationsDegenerate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("calibrations_degenerate_total"),
		Help:        "Total number of calibrations completed with a small range of motion",
		ConstLabels: m.constLabels,
	})

	m.calibrationsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("calibrations_skipped_total"),
		Help:        "Total number of sessions started with default thresholds",
		ConstLabels: m.constLabels,
	})

	m.classifierChecks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("classifier_checks_total"),
		Help:        "Total number of form classifier checks by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.classifierLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("classifier_latency_milliseconds"),
		Help:        "Form classifier latency in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("active_sessions"),
		Help:        "Current number of open sessions",
		ConstLabels: m.constLabels,
	})

	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sessions_started_total"),
		Help:        "Total number of sessions started",
		ConstLabels: m.constLabels,
	})

	m.sessionsStopped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sessions_stopped_total"),
		Help:        "Total number of sessions stopped",
		ConstLabels: m.constLabels,
	})

	m.streamClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("stream_clients"),
		Help:        "Current number of connected WebSocket frame streams",
		ConstLabels: m.constLabels,
	})

	m.sessionDurations = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("session_duration_seconds"),
		Help:        "Duration of the active workout phase of stopped sessions",
		Buckets:     []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.httpBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Total number of errors by component",
			ConstLabels: m.constLabels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by endpoint",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "Current heap memory usage in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Current number of goroutines",
		ConstLabels: m.constLabels,
	})
}

// RecordFrameProcessed counts a frame handled in the given session phase.
func RecordFrameProcessed(phase string) {
	globalManager.framesProcessed.WithLabelValues(phase).Inc()
}

// RecordFrameLatency records per-frame processing latency in milliseconds.
func RecordFrameLatency(latencyMs float64) {
	globalManager.frameLatency.Observe(latencyMs)
}

// RecordFrameRejected counts a malformed frame.
func RecordFrameRejected() {
	globalManager.framesRejected.Inc()
}

// RecordRepCounted counts a repetition for limb.
func RecordRepCounted(limb string) {
	globalManager.repsCounted.WithLabelValues(limb).Inc()
}

// RecordTrackingLost counts a frame in which limb was lost.
func RecordTrackingLost(limb string) {
	globalManager.trackingLost.WithLabelValues(limb).Inc()
}

// RecordFormError counts a bad-form episode for limb.
func RecordFormError(limb string) {
	globalManager.formErrors.WithLabelValues(limb).Inc()
}

// RecordMismatch counts a frame contradicting the expected exercise.
func RecordMismatch(reason string) {
	globalManager.mismatches.WithLabelValues(reason).Inc()
}

// RecordVSign counts a frame with a V-sign gesture.
func RecordVSign() {
	globalManager.vSignDetected.Inc()
}

// RecordCalibrationCompleted counts a finished calibration.
func RecordCalibrationCompleted(degenerate bool) {
	globalManager.calibrationsCompleted.Inc()
	if degenerate {
		globalManager.calibrationsDegenerate.Inc()
	}
}

// RecordCalibrationSkipped counts a session started on default thresholds.
func RecordCalibrationSkipped() {
	globalManager.calibrationsSkipped.Inc()
}

// RecordClassifierCheck counts a classifier check by outcome
// (good, bad, fail_open).
func RecordClassifierCheck(outcome string) {
	globalManager.classifierChecks.WithLabelValues(outcome).Inc()
}

// RecordClassifierLatency records classifier latency in milliseconds.
func RecordClassifierLatency(latencyMs float64) {
	globalManager.classifierLatency.Observe(latencyMs)
}

// UpdateActiveSessions sets the number of open sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordSessionStarted counts a started session.
func RecordSessionStarted() {
	globalManager.sessionsStarted.Inc()
}

// RecordSessionStopped counts a stopped session and its active duration.
func RecordSessionStopped(duration time.Duration) {
	globalManager.sessionsStopped.Inc()
	globalManager.sessionDurations.Observe(duration.Seconds())
}

// AddStreamClients adjusts the number of connected frame streams.
func AddStreamClients(delta int) {
	globalManager.streamClients.Add(float64(delta))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records errors by endpoint, method and type.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// Default returns the global manager.
func Default() *Manager {
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
