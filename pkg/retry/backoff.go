package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "twhydrate/pkg/errors"
)

// Backoff gives the delay before retry number attempt, counting from 1
type Backoff interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff grows from BaseDelay by Multiplier per attempt up to
// MaxDelay. JitterFactor spreads each delay by up to that fraction either
// way.
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	d := float64(b.BaseDelay) * math.Pow(b.Multiplier, float64(attempt-1))
	if limit := float64(b.MaxDelay); limit > 0 && d > limit {
		d = limit
	}
	if b.JitterFactor > 0 {
		d += d * b.JitterFactor * (2*rand.Float64() - 1)
	}
	return time.Duration(math.Max(d, 0))
}

// ConstantBackoff waits the same Delay before every retry
type ConstantBackoff struct {
	Delay time.Duration
}

func (b *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return b.Delay
}

// ByErrorType picks the backoff for the remote error type of err. Types
// without an entry, and local errors, use Default.
type ByErrorType struct {
	Types   map[errs.ErrorType]Backoff
	Default Backoff
}

// ForError returns the backoff for err
func (b *ByErrorType) ForError(err error) Backoff {
	if s, ok := b.Types[errs.TypeOf(err)]; ok {
		return s
	}
	return b.Default
}

// APIBackoff is the schedule for Twitter API calls. Connection resets
// clear quickly, "over capacity" 5xx responses take longer, and a 429
// that announced no reset time backs off toward the 15 minute window.
func APIBackoff() *ByErrorType {
	return &ByErrorType{
		Types: map[errs.ErrorType]Backoff{
			errs.ErrorTypeNetwork: &ExponentialBackoff{
				BaseDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2, JitterFactor: 0.2,
			},
			errs.ErrorTypeServerError: &ExponentialBackoff{
				BaseDelay: 5 * time.Second, MaxDelay: time.Minute, Multiplier: 2, JitterFactor: 0.1,
			},
			errs.ErrorTypeRateLimit: &ExponentialBackoff{
				BaseDelay: time.Minute, MaxDelay: 15 * time.Minute, Multiplier: 2, JitterFactor: 0.1,
			},
		},
		Default: &ExponentialBackoff{
			BaseDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2, JitterFactor: 0.1,
		},
	}
}

// Wait sleeps for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
