package app

import (
	"context"
	"sync"
	"time"
)

// Timekeeper drives the one-second clock of every live attempt from a single goroutine.
type Timekeeper struct {
	service  *AttemptService
	interval time.Duration
	wg       sync.WaitGroup
}

func NewTimekeeper(service *AttemptService, interval time.Duration) *Timekeeper {
	if interval <= 0 {
		interval = time.Second
	}
	return &Timekeeper{service: service, interval: interval}
}

// Run ticks until ctx is done, then waits for pending auto-submissions.
func (t *Timekeeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	defer t.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.TickAll(ctx)
		}
	}
}

// TickAll advances every live attempt by one second. Expired attempts are submitted in the
// background so a slow store does not hold back the other clocks.
func (t *Timekeeper) TickAll(ctx context.Context) {
	for _, attempt := range t.service.sessions.All() {
		if !attempt.advance() {
			continue
		}
		t.wg.Add(1)
		go func(attempt *Attempt) {
			defer t.wg.Done()
			t.service.expire(context.WithoutCancel(ctx), attempt)
		}(attempt)
	}
}

// Wait blocks until background auto-submissions started by TickAll have finished.
func (t *Timekeeper) Wait() {
	t.wg.Wait()
}
