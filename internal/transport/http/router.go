package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/logger"
	"quiz-attempt-service/internal/metrics"
)

// NewRouter mounts health, metrics, the attempt websocket and the REST API.
func NewRouter(service *app.AttemptService, log *logger.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.Middleware(log))
	r.Use(m.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", NewWSHandler(service, log.Entry()).ServeWS)
	NewAPI(service, log.Entry()).Routes(r)
	return r
}
