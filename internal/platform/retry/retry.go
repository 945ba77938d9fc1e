package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform"
	"github.com/cenkalti/backoff/v4"
)

// Policy configures retrying of transient errors.
type Policy struct {
	// MaxAttempts is total number of attempts, including the first one.
	MaxAttempts int
	// Backoff is delay before second attempt, doubled for each next one.
	Backoff time.Duration
	// MaxBackoff caps the delay between attempts, ignored when zero.
	MaxBackoff time.Duration
	// OnRetry is called before sleeping when attempt failed with retryable error.
	OnRetry func(attempt int, err error)
	// Sleep waits for d or until ctx is done, time based sleep when nil.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do calls fn until it succeeds, returns permanent error or attempts run out.
// Exhausted attempts return error wrapping both platform.ErrRetriesExhausted and last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := max(p.MaxAttempts, 1)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		attempt int
		lastErr error
	)
	operation := func() error {
		attempt++
		lastErr = fn(ctx, attempt)
		if platform.IsPermanent(lastErr) {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}
	notify := func(err error, _ time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
	}

	err := backoff.RetryNotifyWithTimer(operation, p.backOff(ctx, attempts), notify, p.timer(ctx, cancel))
	switch {
	case err == nil:
		return nil
	case platform.IsPermanent(err):
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("can't wait for next attempt: %w (last error: %w)", context.Cause(ctx), lastErr)
	}

	return fmt.Errorf("%w after %d attempts: %w", platform.ErrRetriesExhausted, attempts, err)
}

func (p Policy) backOff(ctx context.Context, attempts int) backoff.BackOff {
	maxInterval := p.MaxBackoff
	if maxInterval <= 0 {
		maxInterval = time.Duration(math.MaxInt64)
	}

	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.Backoff),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(maxInterval),
		backoff.WithMaxElapsedTime(0),
	)

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

func (p Policy) timer(ctx context.Context, cancel context.CancelCauseFunc) backoff.Timer {
	if p.Sleep == nil {
		return nil
	}

	return &sleepTimer{ctx: ctx, cancel: cancel, sleep: p.Sleep, c: make(chan time.Time, 1)}
}

// sleepTimer waits with Policy.Sleep, failed sleep cancels the retry.
type sleepTimer struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	sleep  func(ctx context.Context, d time.Duration) error
	c      chan time.Time
}

func (t *sleepTimer) Start(d time.Duration) {
	if err := t.sleep(t.ctx, d); err != nil {
		t.cancel(err)
		return
	}
	t.c <- time.Now()
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time {
	return t.c
}

// Sleep waits for d or returns ctx error when ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
