// Package retry provides exponential backoff with jitter for the outbound
// calls this service depends on: LLM generation and GitHub REST requests.
package retry

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config controls the backoff schedule.
type Config struct {
	MaxRetries int           // retry attempts after the first try
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // ceiling applied to the computed delay
	Multiplier float64       // exponential growth factor
	Jitter     bool          // add up to ±10% random jitter
	LogRetries bool          // log each retry at debug level
}

// DefaultConfig suits GitHub API calls.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		LogRetries: true,
	}
}

// LLMConfig allows the longer tail latencies of model generation.
func LLMConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.5,
		Jitter:     true,
		LogRetries: true,
	}
}

// Do runs op, retrying retryable failures with exponential backoff until it
// succeeds, the retry budget is exhausted, or ctx is cancelled. The last
// error is returned. Non-retryable errors abort immediately.
func Do(ctx context.Context, cfg Config, name string, op func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == cfg.MaxRetries {
			return lastErr
		}

		delay := delayFor(cfg, attempt)
		if cfg.LogRetries {
			log.Debug().
				Str("operation", name).
				Int("attempt", attempt+1).
				Int("max_attempts", cfg.MaxRetries+1).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying after failure")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

func delayFor(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
		if delay < 0 {
			delay = float64(cfg.BaseDelay)
		}
	}
	return time.Duration(delay)
}

// retryableFragments are substrings of transient transport and upstream
// errors worth retrying. Matching is case-insensitive.
var retryableFragments = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"429",
	"502",
	"503",
	"504",
	"no such host",
	"network unreachable",
	"broken pipe",
	"context deadline exceeded",
}

// IsRetryable reports whether err looks transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range retryableFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
