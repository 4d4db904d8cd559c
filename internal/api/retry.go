package api

import (
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// Default retry configuration for API operations
	defaultMaxAttempts  = 3
	defaultInitialDelay = 300 * time.Millisecond
)

// RetryConfig controls the backoff schedule for transient failures.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = defaultInitialDelay
	}
	return c
}

// retryWithBackoff executes fn up to cfg.MaxAttempts times, sleeping an
// exponentially growing, jittered delay between attempts. The delay doubles
// each attempt with no upper cap; each sleep is a random share of the
// current delay so concurrent retries spread out.
func retryWithBackoff(cfg RetryConfig, fn func() error) error {
	cfg = cfg.normalized()

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			sleep := jitter(delay)
			log.Debugf("[Retry] Attempt %d/%d after %v delay", attempt, cfg.MaxAttempts, sleep)
			time.Sleep(sleep)
			delay *= 2
		}

		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Debugf("[Retry] Succeeded on attempt %d/%d", attempt, cfg.MaxAttempts)
			}
			return nil
		}

		if !isRetryable(lastErr) {
			log.Debugf("[Retry] Non-retryable error, failing immediately: %v", lastErr)
			return lastErr
		}

		if attempt < cfg.MaxAttempts {
			log.Debugf("[Retry] Retryable error on attempt %d/%d: %v", attempt, cfg.MaxAttempts, lastErr)
		}
	}

	log.Debugf("[Retry] All %d attempts failed, giving up", cfg.MaxAttempts)
	return lastErr
}

// jitter returns a random duration in (0, d].
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d))) + 1
}
