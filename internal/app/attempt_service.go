package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/domain"
)

// AttemptRepository abstracts where live attempts are registered (in-memory, Redis, etc).
// There is at most one live attempt per (quiz, user).
type AttemptRepository interface {
	GetOrCreate(ctx context.Context, quizID, userID string, create func() *Attempt) (*Attempt, bool, error)
	Get(quizID, userID string) (*Attempt, bool)
	Delete(quizID, userID string)
	All() []*Attempt
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// Recorder receives attempt lifecycle events.
type Recorder interface {
	AttemptStarted(quizID string)
	SubmissionFinished(trigger string, err error, elapsed time.Duration)
	ActiveAttempts(n int)
}

const (
	TriggerManual  = "manual"
	TriggerTimeout = "timeout"
)

// AttemptService contains the quiz attempt use cases.
type AttemptService struct {
	sessions AttemptRepository
	quizzes  QuizRepository
	results  *ResultGateway
	log      logrus.FieldLogger
	recorder Recorder
	now      func() time.Time
}

// Option customizes an AttemptService.
type Option func(*AttemptService)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *AttemptService) { s.log = log }
}

func WithRecorder(r Recorder) Option {
	return func(s *AttemptService) { s.recorder = r }
}

// WithClock is test-only for deterministic completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *AttemptService) { s.now = now }
}

func NewAttemptService(sessions AttemptRepository, quizzes QuizRepository, results *ResultGateway, opts ...Option) *AttemptService {
	s := &AttemptService{
		sessions: sessions,
		quizzes:  quizzes,
		results:  results,
		log:      logrus.StandardLogger(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins (or resumes) the user's attempt at a quiz. Unknown or malformed quizzes never
// create a session, and a user who already has a stored result cannot start again.
func (s *AttemptService) Start(ctx context.Context, quizID, userID string) (domain.AttemptState, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptState{}, err
	}
	if err := quiz.Validate(); err != nil {
		return domain.AttemptState{}, err
	}

	if attempt, ok := s.sessions.Get(quizID, userID); ok {
		return attempt.State(), nil
	}
	if _, err := s.results.Fetch(ctx, quizID, userID); err == nil {
		return domain.AttemptState{}, domain.ErrAttemptCompleted
	} else if !errors.Is(err, domain.ErrResultNotFound) {
		return domain.AttemptState{}, err
	}

	attempt, created, err := s.sessions.GetOrCreate(ctx, quizID, userID, func() *Attempt {
		return NewAttemptWithClock(quiz, userID, s.results, s.now)
	})
	if err != nil {
		return domain.AttemptState{}, err
	}
	if !created {
		return attempt.State(), nil
	}
	s.recorder.AttemptStarted(quizID)
	s.recorder.ActiveAttempts(len(s.sessions.All()))
	s.logger(attempt).WithField("time_limit_seconds", quiz.TimeLimitSeconds).Info("attempt started")

	started := time.Now()
	state, err := attempt.Start(ctx)
	if attempt.Status() == domain.StatusSubmitted || err != nil {
		// Degenerate quizzes are submitted during start.
		s.finish(attempt, TriggerTimeout, started, err)
	}
	return state, err
}

// SelectAnswer records an answer in the user's live attempt.
func (s *AttemptService) SelectAnswer(ctx context.Context, quizID, userID string, questionIndex, optionIndex int) (domain.AttemptState, error) {
	attempt, err := s.lookup(ctx, quizID, userID)
	if err != nil {
		return domain.AttemptState{}, err
	}
	return attempt.SelectAnswer(questionIndex, optionIndex)
}

// GoTo moves the user's question pointer.
func (s *AttemptService) GoTo(ctx context.Context, quizID, userID string, index int) (domain.AttemptState, error) {
	attempt, err := s.lookup(ctx, quizID, userID)
	if err != nil {
		return domain.AttemptState{}, err
	}
	return attempt.GoTo(index)
}

// Next advances to the following question.
func (s *AttemptService) Next(ctx context.Context, quizID, userID string) (domain.AttemptState, error) {
	attempt, err := s.lookup(ctx, quizID, userID)
	if err != nil {
		return domain.AttemptState{}, err
	}
	return attempt.Next()
}

// Previous goes back one question.
func (s *AttemptService) Previous(ctx context.Context, quizID, userID string) (domain.AttemptState, error) {
	attempt, err := s.lookup(ctx, quizID, userID)
	if err != nil {
		return domain.AttemptState{}, err
	}
	return attempt.Previous()
}

// Submit grades and stores the user's attempt.
func (s *AttemptService) Submit(ctx context.Context, quizID, userID string) (domain.Result, error) {
	attempt, err := s.lookup(ctx, quizID, userID)
	if err != nil {
		return domain.Result{}, err
	}
	started := time.Now()
	result, err := attempt.Submit(ctx)
	if errors.Is(err, domain.ErrAlreadySubmitting) || errors.Is(err, domain.ErrInvalidState) {
		return domain.Result{}, err
	}
	s.finish(attempt, TriggerManual, started, err)
	return result, err
}

// State returns the snapshot of the user's live attempt.
func (s *AttemptService) State(ctx context.Context, quizID, userID string) (domain.AttemptState, error) {
	attempt, err := s.lookup(ctx, quizID, userID)
	if err != nil {
		return domain.AttemptState{}, err
	}
	return attempt.State(), nil
}

// Subscribe returns a channel that receives state updates for the user's attempt.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AttemptService) Subscribe(_ context.Context, quizID, userID string) (<-chan domain.AttemptState, func(), error) {
	attempt, ok := s.sessions.Get(quizID, userID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := attempt.Subscribe()
	return ch, cancel, nil
}

// Result returns the stored result of a finished attempt.
func (s *AttemptService) Result(ctx context.Context, quizID, userID string) (domain.Result, error) {
	return s.results.Fetch(ctx, quizID, userID)
}

// Review renders the per-question feedback for a finished attempt.
func (s *AttemptService) Review(ctx context.Context, quizID, userID string) (domain.ReviewSummary, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.ReviewSummary{}, err
	}
	result, err := s.results.Fetch(ctx, quizID, userID)
	if err != nil {
		return domain.ReviewSummary{}, err
	}
	return Summarize(quiz, result), nil
}

// Quiz returns the public overview of a quiz.
func (s *AttemptService) Quiz(ctx context.Context, quizID string) (domain.QuizOverview, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizOverview{}, err
	}
	return quiz.Overview(), nil
}

// Dashboard lists every quiz with the user's completion status and score.
func (s *AttemptService) Dashboard(ctx context.Context, userID string) (domain.Dashboard, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}
	dashboard := domain.Dashboard{
		UserID:     userID,
		Quizzes:    make([]domain.QuizListing, 0, len(quizzes)),
		TotalCount: len(quizzes),
	}
	for _, quiz := range quizzes {
		listing := quiz.Listing()
		result, err := s.results.Fetch(ctx, quiz.ID, userID)
		switch {
		case err == nil:
			score := result.Score
			listing.Completed = true
			listing.Score = &score
			dashboard.CompletedCount++
		case !errors.Is(err, domain.ErrResultNotFound):
			return domain.Dashboard{}, fmt.Errorf("result for quiz %s: %w", quiz.ID, err)
		}
		dashboard.Quizzes = append(dashboard.Quizzes, listing)
	}
	return dashboard, nil
}

// lookup finds the live attempt. Once the attempt has been recorded its session is gone, so
// further mutations are reported as ErrInvalidState rather than a missing session.
func (s *AttemptService) lookup(ctx context.Context, quizID, userID string) (*Attempt, error) {
	if attempt, ok := s.sessions.Get(quizID, userID); ok {
		return attempt, nil
	}
	_, err := s.results.Fetch(ctx, quizID, userID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: attempt already submitted", domain.ErrInvalidState)
	case errors.Is(err, domain.ErrResultNotFound):
		return nil, domain.ErrSessionNotFound
	default:
		return nil, err
	}
}

// expire auto-submits an attempt whose clock ran out.
func (s *AttemptService) expire(ctx context.Context, attempt *Attempt) {
	started := time.Now()
	_, err := attempt.Submit(ctx)
	if errors.Is(err, domain.ErrAlreadySubmitting) || errors.Is(err, domain.ErrInvalidState) {
		return
	}
	s.finish(attempt, TriggerTimeout, started, err)
}

func (s *AttemptService) finish(attempt *Attempt, trigger string, started time.Time, err error) {
	s.recorder.SubmissionFinished(trigger, err, time.Since(started))
	log := s.logger(attempt).WithField("trigger", trigger)
	if err != nil {
		log.WithError(err).Warn("attempt submission failed, answers kept for retry")
		return
	}
	s.sessions.Delete(attempt.QuizID(), attempt.UserID())
	s.recorder.ActiveAttempts(len(s.sessions.All()))
	log.Info("attempt submitted")
}

func (s *AttemptService) logger(attempt *Attempt) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{
		"attempt_id": attempt.ID(),
		"quiz_id":    attempt.QuizID(),
		"user_id":    attempt.UserID(),
	})
}

type nopRecorder struct{}

func (nopRecorder) AttemptStarted(string)                            {}
func (nopRecorder) SubmissionFinished(string, error, time.Duration) {}
func (nopRecorder) ActiveAttempts(int)                               {}
