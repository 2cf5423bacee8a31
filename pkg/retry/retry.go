package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"twhydrate/pkg/config"
	errs "twhydrate/pkg/errors"
	"twhydrate/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff is used when BackoffFor is nil or returns nil
	Backoff Backoff
	// BackoffFor optionally picks a backoff per error
	BackoffFor func(error) Backoff
	// DelayHint lets the caller override the computed delay, e.g. with a
	// rate limit reset time announced by the server
	DelayHint func(error) (time.Duration, bool)
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	api := APIBackoff()
	return &Config{
		MaxAttempts: 3,
		Backoff:     api.Default,
		BackoffFor:  api.ForError,
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// FromConfig builds a retry configuration from the retry section of the
// application config. max_attempts 0 retries transient errors until they
// clear or the context ends.
func FromConfig(rc config.RetryConfig, log logger.Logger) *Config {
	cfg := DefaultConfig()
	if rc.MaxAttempts >= 0 {
		cfg.MaxAttempts = rc.MaxAttempts
	}
	if rc.InitialBackoff > 0 {
		base := &ExponentialBackoff{
			BaseDelay:    rc.InitialBackoff,
			MaxDelay:     rc.MaxBackoff,
			Multiplier:   rc.Multiplier,
			JitterFactor: 0.1,
		}
		if base.MaxDelay <= 0 {
			base.MaxDelay = 60 * time.Second
		}
		if base.Multiplier < 1 {
			base.Multiplier = 2.0
		}
		// rate limits keep their own schedule
		api := APIBackoff()
		api.Types[errs.ErrorTypeNetwork] = base
		api.Types[errs.ErrorTypeServerError] = base
		api.Default = base
		cfg.Backoff = base
		cfg.BackoffFor = api.ForError
	}
	if log != nil {
		cfg.Logger = log
	}
	return cfg
}

// DefaultRetryIf retries remote errors whose type is transient. Local
// errors and context cancellation are never retried.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	return false
}

func (cfg *Config) delayFor(attempt int, err error) time.Duration {
	if cfg.DelayHint != nil {
		if d, ok := cfg.DelayHint(err); ok {
			return d
		}
	}
	if cfg.BackoffFor != nil {
		if b := cfg.BackoffFor(err); b != nil {
			return b.NextDelay(attempt)
		}
	}
	if cfg.Backoff == nil {
		return 0
	}
	return cfg.Backoff.NextDelay(attempt)
}

// Do executes an operation with retry logic
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	var lastErr error
	attempt := 0

	for {
		attempt++

		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		lastErr = err

		if !retryIf(err) {
			return err
		}

		// no point sleeping when this was the last attempt
		if cfg.MaxAttempts > 0 && attempt == cfg.MaxAttempts {
			continue
		}

		delay := cfg.delayFor(attempt, err)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}
