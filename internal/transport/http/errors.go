package http

import (
	"errors"
	"net/http"

	"quiz-attempt-service/internal/domain"
)

// errorPayload is the body of every error, over REST and over the websocket.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps domain errors onto an HTTP status and a stable code.
func classify(err error) (int, errorPayload) {
	payload := errorPayload{Message: err.Error()}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		payload.Code = "not_found"
		return http.StatusNotFound, payload
	case errors.Is(err, domain.ErrValidation):
		payload.Code = "validation"
		return http.StatusBadRequest, payload
	case errors.Is(err, domain.ErrAlreadySubmitting):
		payload.Code = "already_submitting"
		return http.StatusConflict, payload
	case errors.Is(err, domain.ErrAttemptCompleted):
		payload.Code = "attempt_completed"
		return http.StatusConflict, payload
	case errors.Is(err, domain.ErrInvalidState):
		payload.Code = "invalid_state"
		return http.StatusConflict, payload
	default:
		return http.StatusInternalServerError, errorPayload{Code: "internal", Message: "internal error"}
	}
}
