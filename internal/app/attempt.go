package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-attempt-service/internal/domain"
)

// ResultSubmitter persists a computed result and returns the authoritative stored one.
type ResultSubmitter interface {
	Submit(ctx context.Context, result domain.Result) (domain.Result, error)
}

// Attempt is the live state of one user taking one quiz.
type Attempt struct {
	id      string
	quiz    domain.Quiz
	userID  string
	results ResultSubmitter
	now     func() time.Time

	mu          sync.RWMutex
	status      domain.AttemptStatus
	current     int
	answers     map[int]int
	remaining   int
	result      *domain.Result
	subscribers map[chan domain.AttemptState]struct{}
}

// NewAttempt creates a NotStarted attempt for the user.
func NewAttempt(quiz domain.Quiz, userID string, results ResultSubmitter) *Attempt {
	return NewAttemptWithClock(quiz, userID, results, time.Now)
}

// NewAttemptWithClock allows deterministic completion timestamps in tests.
func NewAttemptWithClock(quiz domain.Quiz, userID string, results ResultSubmitter, now func() time.Time) *Attempt {
	return &Attempt{
		id:          uuid.NewString(),
		quiz:        quiz,
		userID:      userID,
		results:     results,
		now:         now,
		status:      domain.StatusNotStarted,
		answers:     make(map[int]int),
		subscribers: make(map[chan domain.AttemptState]struct{}),
	}
}

func (a *Attempt) ID() string     { return a.id }
func (a *Attempt) QuizID() string { return a.quiz.ID }
func (a *Attempt) UserID() string { return a.userID }

// Status reports the current lifecycle state.
func (a *Attempt) Status() domain.AttemptStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// State returns a snapshot of the attempt.
func (a *Attempt) State() domain.AttemptState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

// Start moves the attempt into InProgress with a full clock. A quiz without questions or without
// time is submitted straight away.
func (a *Attempt) Start(ctx context.Context) (domain.AttemptState, error) {
	a.mu.Lock()
	if a.status != domain.StatusNotStarted {
		a.mu.Unlock()
		return domain.AttemptState{}, fmt.Errorf("%w: start from %s", domain.ErrInvalidState, a.status)
	}
	a.status = domain.StatusInProgress
	a.current = 0
	a.answers = make(map[int]int)
	a.remaining = a.quiz.TimeLimitSeconds
	degenerate := a.remaining <= 0 || len(a.quiz.Questions) == 0
	state := a.broadcastLocked()
	a.mu.Unlock()

	if !degenerate {
		return state, nil
	}
	if _, err := a.Submit(ctx); err != nil {
		return a.State(), err
	}
	return a.State(), nil
}

// SelectAnswer records optionIndex for questionIndex, replacing any earlier choice.
func (a *Attempt) SelectAnswer(questionIndex, optionIndex int) (domain.AttemptState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.mutableLocked(); err != nil {
		return domain.AttemptState{}, err
	}
	if questionIndex < 0 || questionIndex >= len(a.quiz.Questions) {
		return domain.AttemptState{}, fmt.Errorf("%w: question index %d out of range [0,%d)",
			domain.ErrValidation, questionIndex, len(a.quiz.Questions))
	}
	options := a.quiz.Questions[questionIndex].Options
	if optionIndex < 0 || optionIndex >= len(options) {
		return domain.AttemptState{}, fmt.Errorf("%w: option index %d out of range [0,%d)",
			domain.ErrValidation, optionIndex, len(options))
	}
	a.answers[questionIndex] = optionIndex
	return a.broadcastLocked(), nil
}

// GoTo moves the question pointer, clamped to the quiz bounds.
func (a *Attempt) GoTo(index int) (domain.AttemptState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.mutableLocked(); err != nil {
		return domain.AttemptState{}, err
	}
	if last := len(a.quiz.Questions) - 1; index > last {
		index = last
	}
	if index < 0 {
		index = 0
	}
	a.current = index
	return a.broadcastLocked(), nil
}

// Next and Previous step the pointer by one question.
func (a *Attempt) Next() (domain.AttemptState, error) { return a.step(1) }

func (a *Attempt) Previous() (domain.AttemptState, error) { return a.step(-1) }

func (a *Attempt) step(delta int) (domain.AttemptState, error) {
	a.mu.RLock()
	target := a.current + delta
	a.mu.RUnlock()
	return a.GoTo(target)
}

// Submit grades the recorded answers and hands the result to the store. While the write is in
// flight the attempt is Submitting; a failed write returns it to InProgress with answers intact.
func (a *Attempt) Submit(ctx context.Context) (domain.Result, error) {
	a.mu.Lock()
	switch a.status {
	case domain.StatusSubmitting:
		a.mu.Unlock()
		return domain.Result{}, domain.ErrAlreadySubmitting
	case domain.StatusInProgress:
	default:
		status := a.status
		a.mu.Unlock()
		return domain.Result{}, fmt.Errorf("%w: submit from %s", domain.ErrInvalidState, status)
	}
	a.status = domain.StatusSubmitting
	result := a.resultLocked()
	a.broadcastLocked()
	a.mu.Unlock()

	// An in-flight write runs to completion even if the caller goes away.
	stored, err := a.results.Submit(context.WithoutCancel(ctx), result)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.status = domain.StatusInProgress
		a.broadcastLocked()
		return domain.Result{}, err
	}
	a.status = domain.StatusSubmitted
	a.result = &stored
	a.broadcastLocked()
	return stored, nil
}

// Tick advances the clock by one second and auto-submits when it runs out.
func (a *Attempt) Tick(ctx context.Context) error {
	if !a.advance() {
		return nil
	}
	return a.expire(ctx)
}

// advance decrements the clock while InProgress and reports whether it just reached zero.
func (a *Attempt) advance() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != domain.StatusInProgress || a.remaining <= 0 {
		return false
	}
	a.remaining--
	a.broadcastLocked()
	return a.remaining == 0
}

// expire auto-submits a timed-out attempt. Losing the race to a manual submit is not an error.
func (a *Attempt) expire(ctx context.Context) error {
	_, err := a.Submit(ctx)
	if errors.Is(err, domain.ErrAlreadySubmitting) || errors.Is(err, domain.ErrInvalidState) {
		return nil
	}
	return err
}

// Subscribe returns a channel of state snapshots; the first one is sent immediately.
// The caller must invoke the returned cancel function to avoid leaks.
func (a *Attempt) Subscribe() (<-chan domain.AttemptState, func()) {
	ch := make(chan domain.AttemptState, 8)

	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	initial := a.snapshotLocked()
	a.mu.Unlock()

	ch <- initial

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) mutableLocked() error {
	switch a.status {
	case domain.StatusInProgress:
		return nil
	case domain.StatusSubmitting:
		return domain.ErrAlreadySubmitting
	default:
		return fmt.Errorf("%w: attempt is %s", domain.ErrInvalidState, a.status)
	}
}

func (a *Attempt) resultLocked() domain.Result {
	score, _ := Score(a.quiz, a.answers)
	return domain.Result{
		QuizID:      a.quiz.ID,
		UserID:      a.userID,
		Score:       score,
		Answers:     copyAnswers(a.answers),
		CompletedAt: a.now().UTC(),
	}
}

func (a *Attempt) broadcastLocked() domain.AttemptState {
	state := a.snapshotLocked()
	for ch := range a.subscribers {
		select {
		case ch <- state:
		default:
			// Slow reader: drop its oldest snapshot so the newest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
	return state
}

func (a *Attempt) snapshotLocked() domain.AttemptState {
	state := domain.AttemptState{
		AttemptID:        a.id,
		QuizID:           a.quiz.ID,
		UserID:           a.userID,
		Status:           a.status,
		CurrentIndex:     a.current,
		QuestionCount:    len(a.quiz.Questions),
		Answers:          copyAnswers(a.answers),
		RemainingSeconds: a.remaining,
	}
	if a.result != nil {
		result := *a.result
		state.Result = &result
	}
	return state
}

func copyAnswers(answers map[int]int) map[int]int {
	out := make(map[int]int, len(answers))
	for k, v := range answers {
		out[k] = v
	}
	return out
}
