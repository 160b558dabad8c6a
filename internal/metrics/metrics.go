package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"quiz-attempt-service/internal/logger"
)

// Metrics holds Prometheus metrics for the attempt service
type Metrics struct {
	AttemptsStarted    *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	SubmissionDuration *prometheus.HistogramVec
	AttemptsActive     prometheus.Gauge
	HTTPRequests       *prometheus.CounterVec
}

// NewMetrics registers the metrics on reg
func NewMetrics(reg prometheus.Registerer, serviceName string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AttemptsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quiz",
				Subsystem: serviceName,
				Name:      "attempts_started_total",
				Help:      "Total number of quiz attempts started",
			},
			[]string{"quiz_id"},
		),
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quiz",
				Subsystem: serviceName,
				Name:      "submissions_total",
				Help:      "Attempt submissions by trigger and outcome",
			},
			[]string{"trigger", "outcome"},
		),
		SubmissionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "quiz",
				Subsystem: serviceName,
				Name:      "submission_duration_seconds",
				Help:      "Time spent persisting a result",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		AttemptsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "quiz",
				Subsystem: serviceName,
				Name:      "attempts_active",
				Help:      "Number of attempts currently in progress",
			},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quiz",
				Subsystem: serviceName,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
	}
}

func (m *Metrics) AttemptStarted(quizID string) {
	m.AttemptsStarted.WithLabelValues(quizID).Inc()
}

func (m *Metrics) SubmissionFinished(trigger string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Submissions.WithLabelValues(trigger, outcome).Inc()
	m.SubmissionDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
}

func (m *Metrics) ActiveAttempts(n int) {
	m.AttemptsActive.Set(float64(n))
}

// Middleware counts HTTP requests by method and status code.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(logger.StatusOf(ww, r))).Inc()
	})
}
