package memory

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/app"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[attemptKey]*app.Attempt
}

type attemptKey struct {
	quizID string
	userID string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[attemptKey]*app.Attempt),
	}
}

func (s *AttemptStore) GetOrCreate(_ context.Context, quizID, userID string, create func() *app.Attempt) (*app.Attempt, bool, error) {
	key := attemptKey{quizID: quizID, userID: userID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt, ok := s.attempts[key]; ok {
		return attempt, false, nil
	}
	attempt := create()
	s.attempts[key] = attempt
	return attempt, true, nil
}

func (s *AttemptStore) Get(quizID, userID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey{quizID: quizID, userID: userID}]
	return attempt, ok
}

func (s *AttemptStore) Delete(quizID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptKey{quizID: quizID, userID: userID})
}

func (s *AttemptStore) All() []*app.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Attempt, 0, len(s.attempts))
	for _, attempt := range s.attempts {
		out = append(out, attempt)
	}
	return out
}
