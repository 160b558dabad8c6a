package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/sync/singleflight"

	"quiz-attempt-service/internal/domain"
)

// KVStore is the persistence contract: opaque bytes under string keys, atomic per-key put.
// Get returns domain.ErrKeyNotFound on a miss.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// ConditionalStore is implemented by stores that can write a key only when it is absent
// (SETNX, ON CONFLICT DO NOTHING). The gateway uses it to keep the first write across processes.
type ConditionalStore interface {
	PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error)
}

// ResultGateway owns result storage and enforces at most one result per (quiz, user).
type ResultGateway struct {
	store KVStore
	sf    singleflight.Group
}

func NewResultGateway(store KVStore) *ResultGateway {
	return &ResultGateway{store: store}
}

// ResultKey derives the storage key for a (quiz, user) pair. Both parts are escaped so that
// separators inside ids cannot make two pairs collide.
func ResultKey(quizID, userID string) string {
	return "result:" + url.QueryEscape(quizID) + ":" + url.QueryEscape(userID)
}

// Submit stores result unless one already exists for its key, in which case the stored result
// is returned unchanged. Concurrent submits for the same key share a single write.
func (g *ResultGateway) Submit(ctx context.Context, result domain.Result) (domain.Result, error) {
	key := ResultKey(result.QuizID, result.UserID)
	v, err, _ := g.sf.Do(key, func() (interface{}, error) {
		existing, err := g.load(ctx, key)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrResultNotFound) {
			return domain.Result{}, err
		}

		data, err := json.Marshal(result)
		if err != nil {
			return domain.Result{}, fmt.Errorf("marshal result: %w", err)
		}
		if cond, ok := g.store.(ConditionalStore); ok {
			stored, err := cond.PutIfAbsent(ctx, key, data)
			if err != nil {
				return domain.Result{}, fmt.Errorf("store result: %w", err)
			}
			if !stored {
				// Another process won the race; its result is authoritative.
				return g.load(ctx, key)
			}
			return result, nil
		}
		if err := g.store.Put(ctx, key, data); err != nil {
			return domain.Result{}, fmt.Errorf("store result: %w", err)
		}
		return result, nil
	})
	if err != nil {
		return domain.Result{}, err
	}
	return v.(domain.Result), nil
}

// Fetch returns the stored result or domain.ErrResultNotFound.
func (g *ResultGateway) Fetch(ctx context.Context, quizID, userID string) (domain.Result, error) {
	return g.load(ctx, ResultKey(quizID, userID))
}

func (g *ResultGateway) load(ctx context.Context, key string) (domain.Result, error) {
	data, err := g.store.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("load result: %w", err)
	}
	var result domain.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, nil
}
