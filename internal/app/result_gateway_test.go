package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func sampleResult(score float64) domain.Result {
	return domain.Result{
		QuizID:      "quiz-1",
		UserID:      "u1",
		Score:       score,
		Answers:     map[int]int{0: 1},
		CompletedAt: fixedNow,
	}
}

func TestGatewayKeepsFirstResult(t *testing.T) {
	stores := map[string]app.KVStore{
		"conditional": memory.NewKVStore(),
		"plain":       newTestStore(),
	}
	for name, store := range stores {
		gateway := app.NewResultGateway(store)
		ctx := context.Background()

		first, err := gateway.Submit(ctx, sampleResult(50))
		if err != nil {
			t.Fatalf("%s: first submit: %v", name, err)
		}
		second, err := gateway.Submit(ctx, sampleResult(100))
		if err != nil {
			t.Fatalf("%s: second submit: %v", name, err)
		}
		if first.Score != 50 || second.Score != 50 {
			t.Fatalf("%s: expected first result to win, got %v then %v", name, first.Score, second.Score)
		}
		fetched, err := gateway.Fetch(ctx, "quiz-1", "u1")
		if err != nil || fetched.Score != 50 || !fetched.CompletedAt.Equal(fixedNow) {
			t.Fatalf("%s: unexpected fetched result %+v (%v)", name, fetched, err)
		}
	}
}

func TestGatewayConcurrentSubmitsAgree(t *testing.T) {
	gateway := app.NewResultGateway(memory.NewKVStore())

	const n = 20
	results := make([]domain.Result, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := gateway.Submit(context.Background(), sampleResult(float64(i)))
			if err != nil {
				t.Errorf("submit %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	stored, err := gateway.Fetch(context.Background(), "quiz-1", "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for i, res := range results {
		if res.Score != stored.Score {
			t.Fatalf("submit %d returned %v, stored is %v", i, res.Score, stored.Score)
		}
	}
}

func TestGatewayFetchMissing(t *testing.T) {
	gateway := app.NewResultGateway(memory.NewKVStore())
	_, err := gateway.Fetch(context.Background(), "quiz-1", "nobody")
	if !errors.Is(err, domain.ErrResultNotFound) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

func TestGatewayPropagatesStoreFailure(t *testing.T) {
	store := newTestStore()
	store.failPuts = 1
	gateway := app.NewResultGateway(store)

	if _, err := gateway.Submit(context.Background(), sampleResult(50)); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := gateway.Fetch(context.Background(), "quiz-1", "u1"); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
	if _, err := gateway.Submit(context.Background(), sampleResult(50)); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestGatewayRejectsCorruptRecord(t *testing.T) {
	store := memory.NewKVStore()
	_ = store.Put(context.Background(), app.ResultKey("quiz-1", "u1"), []byte("{not json"))
	gateway := app.NewResultGateway(store)

	_, err := gateway.Fetch(context.Background(), "quiz-1", "u1")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestResultKeySeparatesPairs(t *testing.T) {
	if app.ResultKey("a:b", "c") == app.ResultKey("a", "b:c") {
		t.Fatalf("keys for different pairs collide")
	}
	if app.ResultKey("quiz-1", "u1") != app.ResultKey("quiz-1", "u1") {
		t.Fatalf("key must be deterministic")
	}
	if app.ResultKey("quiz-1", "u1") == app.ResultKey("quiz-1", "u2") {
		t.Fatalf("different users share a key")
	}
}

func TestGatewayRoundTripPreservesTimestamp(t *testing.T) {
	gateway := app.NewResultGateway(memory.NewKVStore())
	at := time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC)
	result := sampleResult(75)
	result.CompletedAt = at
	if _, err := gateway.Submit(context.Background(), result); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fetched, _ := gateway.Fetch(context.Background(), "quiz-1", "u1")
	if !fetched.CompletedAt.Equal(at) || fetched.Answers[0] != 1 {
		t.Fatalf("round trip lost data: %+v", fetched)
	}
}
