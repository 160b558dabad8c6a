package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/app"
)

// API serves the read side: quiz overviews, user dashboards, stored results and reviews.
type API struct {
	service *app.AttemptService
	log     logrus.FieldLogger
}

func NewAPI(service *app.AttemptService, log logrus.FieldLogger) *API {
	return &API{service: service, log: log}
}

// Routes registers the REST endpoints.
func (a *API) Routes(r chi.Router) {
	r.Get("/quizzes/{quizID}", a.handleQuiz)
	r.Get("/quizzes/{quizID}/results/{userID}", a.handleResult)
	r.Get("/quizzes/{quizID}/results/{userID}/review", a.handleReview)
	r.Get("/users/{userID}/quizzes", a.handleDashboard)
}

func (a *API) handleQuiz(w http.ResponseWriter, r *http.Request) {
	overview, err := a.service.Quiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (a *API) handleResult(w http.ResponseWriter, r *http.Request) {
	result, err := a.service.Result(r.Context(), chi.URLParam(r, "quizID"), chi.URLParam(r, "userID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleReview(w http.ResponseWriter, r *http.Request) {
	review, err := a.service.Review(r.Context(), chi.URLParam(r, "quizID"), chi.URLParam(r, "userID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := a.service.Dashboard(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status, payload := classify(err)
	if status == http.StatusInternalServerError {
		a.log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
