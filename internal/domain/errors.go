package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the parent of every "missing" error; match it with errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrResultNotFound is returned when the user never completed the quiz.
	ErrResultNotFound = fmt.Errorf("result %w", ErrNotFound)
	// ErrSessionNotFound is returned when no attempt is running for the user and quiz.
	ErrSessionNotFound = fmt.Errorf("attempt session %w", ErrNotFound)
	// ErrKeyNotFound is returned by key-value stores on a miss.
	ErrKeyNotFound = fmt.Errorf("key %w", ErrNotFound)

	// ErrValidation wraps malformed quizzes and out-of-range answers.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState is returned for mutations on a session that cannot accept them.
	ErrInvalidState = errors.New("invalid attempt state")
	// ErrAlreadySubmitting rejects a submit while another one is in flight.
	ErrAlreadySubmitting = errors.New("submission already in progress")
	// ErrAttemptCompleted is returned when starting a quiz the user already finished.
	ErrAttemptCompleted = errors.New("quiz already attempted")
)
