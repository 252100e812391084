// Package resilience provides the fault-tolerance primitives applied at the
// transport boundary: exponential-backoff retry for dialing, a call timeout
// wrapper, and a circuit breaker for long-running exports. The analytics
// clients themselves stay retry-free; a failed call surfaces to the caller.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/scieloorg/journal-analytics/pkg/config"
)

// ErrCircuitOpen is returned when the circuit breaker is in the open state.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Retry runs fn up to cfg.MaxAttempts times with exponential backoff and
// ±10% jitter. Zero config fields fall back to a 3-attempt, 100ms..5s
// schedule.
func Retry(ctx context.Context, name string, cfg config.RetryConfig, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	logger := slog.Default().With("component", "retry", "operation", name)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}
		delay := backoffDelay(attempt, cfg)
		logger.Warn("operation failed, retrying",
			"attempt", attempt, "max_attempts", cfg.MaxAttempts,
			"error", lastErr, "next_delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry aborted during backoff: %w", ctx.Err())
		}
	}
	return fmt.Errorf("all %d attempts failed for %s: %w", cfg.MaxAttempts, name, lastErr)
}

func backoffDelay(attempt int, cfg config.RetryConfig) time.Duration {
	backoff := float64(cfg.InitialDelay) * math.Pow(2, float64(attempt-1))
	backoff += backoff * 0.1 * (2*rand.Float64() - 1)
	if backoff > float64(cfg.MaxDelay) {
		backoff = float64(cfg.MaxDelay)
	}
	return time.Duration(backoff)
}

// WithTimeout runs fn with a derived context that is cancelled after the
// given timeout. A non-positive timeout runs fn with ctx unchanged.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- fn(timeoutCtx)
	}()
	select {
	case err := <-done:
		return err
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
		}
		return fmt.Errorf("%s: %w (limit: %v)", name, context.DeadlineExceeded, timeout)
	}
}

// Breaker trips open after a threshold of consecutive failures and lets a
// probe request through once the reset period has passed. It guards the
// channel factory during bulk exports so a dead backend fails fast instead
// of timing out once per document.
type Breaker struct {
	name      string
	threshold int
	reset     time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a Breaker. Non-positive arguments fall back to a
// threshold of 5 failures and a 30s reset period.
func NewBreaker(name string, threshold int, reset time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if reset <= 0 {
		reset = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, reset: reset}
}

// Execute runs fn unless the breaker is open. While open, calls fail
// immediately with ErrCircuitOpen until the reset period elapses, after
// which a single probe is allowed through.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return nil
	}
	if time.Since(b.openedAt) < b.reset || b.probing {
		return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	}
	b.probing = true
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures == b.threshold {
		b.openedAt = time.Now()
		slog.Warn("circuit breaker opened", "name", b.name, "failures", b.failures)
	} else if b.failures > b.threshold {
		b.openedAt = time.Now()
	}
}
