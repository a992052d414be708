package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Message metrics
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emotion_bot_messages_received_total",
		Help: "Total number of messages received",
	}, []string{"kind"})

	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emotion_bot_messages_processed_total",
		Help: "Total number of messages processed",
	}, []string{"status"})

	// Command metrics
	commandsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emotion_bot_commands_executed_total",
		Help: "Total number of commands executed",
	}, []string{"command"})

	// Classification metrics
	classificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "emotion_bot_classification_duration_seconds",
		Help:    "Duration of classifier requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"source", "status"})

	classificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emotion_bot_classifications_total",
		Help: "Total number of classifier requests",
	}, []string{"source", "label"})

	// Moderation metrics
	repliesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emotion_bot_empathetic_replies_total",
		Help: "Total number of empathetic replies sent",
	})

	warningsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emotion_bot_warnings_recorded_total",
		Help: "Total number of warnings recorded",
	}, []string{"emotion"})

	restrictionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emotion_bot_restrictions_issued_total",
		Help: "Total number of restrictions issued",
	})

	// Cache metrics
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emotion_bot_cache_hits_total",
		Help: "Total number of classification cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emotion_bot_cache_misses_total",
		Help: "Total number of classification cache misses",
	})

	// Rate limit metrics
	rateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emotion_bot_rate_limit_exceeded_total",
		Help: "Total number of rate limit exceeded events",
	}, []string{"user_id"})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordMessageReceived records a received message by kind (text/voice)
func (m *Metrics) RecordMessageReceived(kind string) {
	messagesReceived.WithLabelValues(kind).Inc()
}

// RecordMessageProcessed records a processed message
func (m *Metrics) RecordMessageProcessed(status string) {
	messagesProcessed.WithLabelValues(status).Inc()
}

// RecordCommandExecuted records an executed command
func (m *Metrics) RecordCommandExecuted(command string) {
	commandsExecuted.WithLabelValues(command).Inc()
}

// RecordClassification records a classifier request
func (m *Metrics) RecordClassification(source, label, status string, duration time.Duration) {
	classificationDuration.WithLabelValues(source, status).Observe(duration.Seconds())
	classificationsTotal.WithLabelValues(source, label).Inc()
}

// RecordReplySent records an empathetic reply
func (m *Metrics) RecordReplySent() {
	repliesSent.Inc()
}

// RecordWarning records an accrued warning
func (m *Metrics) RecordWarning(emotion string) {
	warningsRecorded.WithLabelValues(emotion).Inc()
}

// RecordRestrictionIssued records an issued restriction
func (m *Metrics) RecordRestrictionIssued() {
	restrictionsIssued.Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss() {
	cacheMisses.Inc()
}

// RecordRateLimitExceeded records a rate limit exceeded event
func (m *Metrics) RecordRateLimitExceeded(userID string) {
	rateLimitExceeded.WithLabelValues(userID).Inc()
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
