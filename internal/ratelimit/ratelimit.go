package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a fixed call budget per rolling window. Callers block in
// Wait until a slot is free; calls are never rejected. Safe for concurrent
// use from multiple item-processing flows.
type Limiter struct {
	mu          sync.Mutex
	maxCalls    int
	window      time.Duration
	calls       int
	windowStart time.Time
}

// New creates a limiter allowing maxCalls per window.
func New(maxCalls int, window time.Duration) *Limiter {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		maxCalls: maxCalls,
		window:   window,
	}
}

// Wait blocks until a call slot is available, then reserves it.
// It returns early only if the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		if now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.calls = 0
		}
		if l.calls < l.maxCalls {
			l.calls++
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.windowStart)
		l.mu.Unlock()

		if wait <= 0 {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// WaitAll acquires a slot from every limiter in order. Torrent-scoped
// provider calls acquire both the per-endpoint and the overall budget.
func WaitAll(ctx context.Context, limiters ...*Limiter) error {
	for _, l := range limiters {
		if l == nil {
			continue
		}
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
