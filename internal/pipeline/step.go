package pipeline

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bylinehq/byline/internal/agent"
)

// Default retry policy, matching the external API's observed quota windows.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 10 * time.Second
)

// Executor runs one generation step against a rate-limited external service.
// Rate-limited failures are retried with exponential backoff plus jitter;
// anything else propagates after a single attempt. Successful steps are
// followed by a randomized cooldown so back-to-back stages do not hammer the
// provider even on the happy path.
type Executor struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// timer is the backoff timer used for retry waits and the success
	// cooldown. nil means real time. Tests inject a fake.
	timer backoff.Timer

	// jitter samples the per-retry jitter, uniform in [0, 1s).
	jitter func() time.Duration

	// cooldown samples the post-success pacing delay, uniform in [5s, 15s).
	cooldown func() time.Duration
}

// NewExecutor builds an executor with the given retry policy. Zero values
// select the defaults.
func NewExecutor(maxAttempts int, baseDelay time.Duration) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	return &Executor{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		jitter: func() time.Duration {
			return time.Duration(rand.Float64() * float64(time.Second))
		},
		cooldown: func() time.Duration {
			return 5*time.Second + time.Duration(rand.Float64()*float64(10*time.Second))
		},
	}
}

// Do executes fn, retrying rate-limited failures up to MaxAttempts total
// attempts. The step name is used for logging only.
func (e *Executor) Do(ctx context.Context, step string, fn func(ctx context.Context) (string, error)) (string, error) {
	log.Printf("[Pipeline] Starting %s", step)

	var out string
	operation := func() error {
		result, err := fn(ctx)
		if err != nil {
			if agent.IsRateLimited(err) {
				return err
			}
			// Fatal: stop the retry loop immediately.
			return backoff.Permanent(err)
		}
		out = result
		return nil
	}

	notify := func(err error, delay time.Duration) {
		log.Printf("[Pipeline] Rate limit hit during %s. Retrying in %.1f seconds...", step, delay.Seconds())
	}

	schedule := &retrySchedule{
		base:       e.BaseDelay,
		maxRetries: e.MaxAttempts - 1,
		jitter:     e.jitter,
	}

	err := backoff.RetryNotifyWithTimer(operation, backoff.WithContext(schedule, ctx), notify, e.timer)
	if err != nil {
		log.Printf("[Pipeline] Error in %s: %v", step, err)
		return "", fmt.Errorf("%s failed: %w", step, err)
	}

	// Pace the next call against the external rate limiter.
	e.wait(ctx, e.cooldown())

	return out, nil
}

// wait sleeps for d, honouring context cancellation and the injected timer.
func (e *Executor) wait(ctx context.Context, d time.Duration) {
	timer := e.timer
	if timer == nil {
		select {
		case <-ctx.Done():
		case <-time.After(d):
		}
		return
	}

	timer.Start(d)
	select {
	case <-ctx.Done():
		timer.Stop()
	case <-timer.C():
	}
}

// retrySchedule implements backoff.BackOff with the pipeline's delay curve:
// base * 2^attempt + jitter, stopping after maxRetries sleeps (so a policy of
// N attempts sleeps at most N-1 times).
type retrySchedule struct {
	base       time.Duration
	maxRetries int
	attempt    int
	jitter     func() time.Duration
}

func (s *retrySchedule) NextBackOff() time.Duration {
	if s.attempt >= s.maxRetries {
		return backoff.Stop
	}
	delay := s.base*time.Duration(1<<s.attempt) + s.jitter()
	s.attempt++
	return delay
}

func (s *retrySchedule) Reset() {
	s.attempt = 0
}
