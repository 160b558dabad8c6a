package redis

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Notes:
//   - Attempts themselves live in a local map; their clocks and subscribers are in-process.
//   - Redis holds an ownership marker per (quiz, user) carrying the attempt id. The marker is
//     claimed with SETNX, so a pair that is live on one instance cannot be started on another.
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[attemptKey]*app.Attempt
}

type attemptKey struct {
	quizID string
	userID string
}

// marker is the Redis key for the pair; both parts are escaped so ids containing ':' stay distinct.
func (k attemptKey) marker() string {
	return "quiz:attempt:" + url.QueryEscape(k.quizID) + ":" + url.QueryEscape(k.userID)
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[attemptKey]*app.Attempt),
	}
}

func (s *AttemptStore) GetOrCreate(ctx context.Context, quizID, userID string, create func() *app.Attempt) (*app.Attempt, bool, error) {
	key := attemptKey{quizID: quizID, userID: userID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt, ok := s.attempts[key]; ok {
		return attempt, false, nil
	}
	attempt := create()
	claimed, err := s.client.SetNX(ctx, key.marker(), attempt.ID(), s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("claim attempt marker: %w", err)
	}
	if !claimed {
		return nil, false, fmt.Errorf("%w: attempt is live on another instance", domain.ErrInvalidState)
	}
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
	key := attemptKey{quizID: quizID, userID: userID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[key]; !ok {
		return
	}
	delete(s.attempts, key)
	// best-effort release; the marker expires on its own otherwise
	_ = s.client.Del(context.Background(), key.marker()).Err()
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
