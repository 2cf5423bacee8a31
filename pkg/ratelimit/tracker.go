package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rateLimitRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "twhydrate_rate_limit_remaining",
		Help: "Calls remaining in the current rate limit window",
	}, []string{"endpoint"})

	rateLimitWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twhydrate_rate_limit_waits_total",
		Help: "Total number of times a caller slept until a rate limit window reset",
	}, []string{"endpoint"})
)

// Header names the API uses to announce the state of a rate limit window
const (
	HeaderLimit     = "x-rate-limit-limit"
	HeaderRemaining = "x-rate-limit-remaining"
	HeaderReset     = "x-rate-limit-reset"
)

// Window is the last known state of one endpoint's rate limit window
type Window struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Exhausted reports whether no calls remain before Reset
func (w Window) Exhausted(now time.Time) bool {
	return w.Remaining <= 0 && w.Reset.After(now)
}

// Tracker records rate limit windows per endpoint from response headers
// and blocks callers until an exhausted window resets.
type Tracker struct {
	mu      sync.Mutex
	windows map[string]Window
	maxWait time.Duration
	slack   time.Duration
	now     func() time.Time

	// OnWait is called before the tracker sleeps
	OnWait func(endpoint string, d time.Duration)
}

// NewTracker creates a tracker. maxWait caps a single sleep; zero means
// no cap.
func NewTracker(maxWait time.Duration) *Tracker {
	return &Tracker{
		windows: make(map[string]Window),
		maxWait: maxWait,
		slack:   time.Second,
		now:     time.Now,
	}
}

// Observe updates the window for endpoint from h and reports whether h
// carried rate limit headers. Responses without them leave the window
// untouched.
func (t *Tracker) Observe(endpoint string, h http.Header) bool {
	remaining, err := strconv.Atoi(h.Get(HeaderRemaining))
	if err != nil {
		return false
	}
	resetUnix, err := strconv.ParseInt(h.Get(HeaderReset), 10, 64)
	if err != nil {
		return false
	}
	limit, _ := strconv.Atoi(h.Get(HeaderLimit))
	rateLimitRemaining.WithLabelValues(endpoint).Set(float64(remaining))

	t.mu.Lock()
	defer t.mu.Unlock()
	t.windows[endpoint] = Window{
		Limit:     limit,
		Remaining: remaining,
		Reset:     time.Unix(resetUnix, 0),
	}
	return true
}

// MarkExhausted forces the window for endpoint closed, used when the API
// answers 429 without usable headers.
func (t *Tracker) MarkExhausted(endpoint string, reset time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.windows[endpoint]
	w.Remaining = 0
	if reset.After(w.Reset) {
		w.Reset = reset
	}
	t.windows[endpoint] = w
}

// Window returns the last observed window for endpoint
func (t *Tracker) Window(endpoint string) (Window, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.windows[endpoint]
	return w, ok
}

// Delay returns how long a caller must wait before the next call to
// endpoint. ok is false when the window is open or unknown.
func (t *Tracker) Delay(endpoint string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, found := t.windows[endpoint]
	now := t.now()
	if !found || !w.Exhausted(now) {
		return 0, false
	}

	d := w.Reset.Sub(now) + t.slack
	if t.maxWait > 0 && d > t.maxWait {
		d = t.maxWait
	}
	return d, true
}

// Wait blocks until the window for endpoint has reset or ctx is done
func (t *Tracker) Wait(ctx context.Context, endpoint string) error {
	d, ok := t.Delay(endpoint)
	if !ok {
		return nil
	}
	rateLimitWaitsTotal.WithLabelValues(endpoint).Inc()
	if t.OnWait != nil {
		t.OnWait(endpoint, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
