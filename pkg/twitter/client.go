package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"twhydrate/pkg/config"
	errs "twhydrate/pkg/errors"
	"twhydrate/pkg/logger"
	"twhydrate/pkg/ratelimit"
	"twhydrate/pkg/record"
	"twhydrate/pkg/retry"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twhydrate_api_requests_total",
		Help: "Total Twitter API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "twhydrate_api_request_duration_seconds",
		Help:    "Twitter API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})
)

// defaultWindow is how long a 429 closes an endpoint when the response
// carries no reset header
const defaultWindow = 15 * time.Minute

// Options tunes a Client
type Options struct {
	BaseURL         string
	PageSize        int
	WaitOnRateLimit bool
	MaxWait         time.Duration
	Retry           *retry.Config
}

// Client talks to the Twitter v1.1 REST API
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	wait       bool
	tracker    *ratelimit.Tracker
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a client whose requests are signed with the four
// OAuth1 secrets from cfg
func NewClient(cfg *config.Config, log logger.Logger) (*Client, error) {
	if !cfg.HasCredentials() {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "twitter credentials are not configured")
	}

	oauthCfg := oauth1.NewConfig(cfg.Twitter.ConsumerKey, cfg.Twitter.ConsumerSecret)
	token := oauth1.NewToken(cfg.Twitter.AccessKey, cfg.Twitter.AccessSecret)
	httpClient := oauthCfg.Client(oauth1.NoContext, token)
	httpClient.Timeout = cfg.Twitter.Timeout

	return NewClientWithHTTP(httpClient, Options{
		BaseURL:         cfg.Twitter.BaseURL,
		PageSize:        cfg.Followers.PageSize,
		WaitOnRateLimit: cfg.RateLimit.WaitOnRateLimit,
		MaxWait:         cfg.RateLimit.MaxWait,
		Retry:           retry.FromConfig(cfg.Retry, log),
	}, log), nil
}

// NewClientWithHTTP creates a client around an already configured
// http.Client
func NewClientWithHTTP(httpClient *http.Client, opts Options, log logger.Logger) *Client {
	log = logger.OrDefault(log)
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Retry == nil {
		opts.Retry = retry.DefaultConfig()
		opts.Retry.Logger = log
	}

	tracker := ratelimit.NewTracker(opts.MaxWait)
	tracker.OnWait = func(endpoint string, d time.Duration) {
		logger.LogRateLimit(log, endpoint, d.Seconds())
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    opts.BaseURL,
		pageSize:   opts.PageSize,
		wait:       opts.WaitOnRateLimit,
		tracker:    tracker,
		retry:      opts.Retry,
		logger:     log,
	}
}

// Tracker exposes the rate limit windows seen so far
func (c *Client) Tracker() *ratelimit.Tracker {
	return c.tracker
}

// LookupUsersByIDs resolves up to 100 user IDs in one call. IDs the API
// cannot resolve are silently absent from the result.
func (c *Client) LookupUsersByIDs(ctx context.Context, ids []int64) ([]record.Raw, error) {
	if len(ids) == 0 || len(ids) > MaxLookupBatch {
		return nil, fmt.Errorf("lookup by id takes 1 to %d ids, got %d", MaxLookupBatch, len(ids))
	}

	c.logger.DebugWithFields("looking up users by id", map[string]interface{}{
		"count": len(ids),
	})
	return c.lookup(ctx, LookupByIDsParams(ids))
}

// LookupUsersByHandles resolves up to 100 screen names in one call
func (c *Client) LookupUsersByHandles(ctx context.Context, handles []string) ([]record.Raw, error) {
	if len(handles) == 0 || len(handles) > MaxLookupBatch {
		return nil, fmt.Errorf("lookup by handle takes 1 to %d handles, got %d", MaxLookupBatch, len(handles))
	}

	c.logger.DebugWithFields("looking up users by handle", map[string]interface{}{
		"count": len(handles),
	})
	return c.lookup(ctx, LookupByHandlesParams(handles))
}

func (c *Client) lookup(ctx context.Context, params url.Values) ([]record.Raw, error) {
	var users []record.Raw
	err := c.getJSON(ctx, UsersLookupEndpoint, params, func(body []byte) error {
		users = nil
		return decodeNumbers(body, &users)
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FollowerIDs fetches one page of follower IDs for root. Start with
// FirstCursor; a returned next cursor of 0 means the listing is exhausted.
func (c *Client) FollowerIDs(ctx context.Context, root, cursor int64) ([]int64, int64, error) {
	c.logger.DebugWithFields("fetching follower ids", map[string]interface{}{
		"root":   root,
		"cursor": cursor,
	})

	var page FollowerIDsPage
	err := c.getJSON(ctx, FollowerIDsEndpoint, FollowerIDsParams(root, cursor, c.pageSize), func(body []byte) error {
		page = FollowerIDsPage{}
		return json.Unmarshal(body, &page)
	})
	if err != nil {
		return nil, 0, err
	}
	return page.IDs, page.NextCursor, nil
}

// VerifyCredentials returns the authenticating user
func (c *Client) VerifyCredentials(ctx context.Context) (record.Raw, error) {
	params := url.Values{}
	params.Set("include_entities", "false")
	params.Set("skip_status", "true")

	var user record.Raw
	err := c.getJSON(ctx, VerifyCredentialsEndpoint, params, func(body []byte) error {
		return decodeNumbers(body, &user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func decodeNumbers(body []byte, target interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(target)
}

// getJSON performs a GET with retries and hands the body to decode
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, decode func([]byte) error) error {
	cfg := *c.retry
	cfg.Context = ctx
	if c.wait {
		cfg.DelayHint = func(err error) (time.Duration, bool) {
			if errs.TypeOf(err) != errs.ErrorTypeRateLimit {
				return 0, false
			}
			return c.tracker.Delay(endpoint)
		}
	} else {
		cfg.RetryIf = func(err error) bool {
			return errs.TypeOf(err) != errs.ErrorTypeRateLimit && retry.DefaultRetryIf(err)
		}
	}

	return retry.Do(func() error {
		body, err := c.get(ctx, endpoint, params)
		if err != nil {
			return err
		}
		if err := decode(body); err != nil {
			preview := string(body)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
				"endpoint":     endpoint,
				"error":        err.Error(),
				"body_preview": preview,
			})
			return errs.Wrap(errs.ErrorTypeParsing, http.StatusOK, "failed to parse JSON", err)
		}
		return nil
	}, &cfg)
}

// get performs a single request and returns the body of a 200 response
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.wait {
		if err := c.tracker.Wait(ctx, endpoint); err != nil {
			return nil, err
		}
	}

	target := BuildURL(c.baseURL, endpoint, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	apiRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		apiRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, 0, "request failed", err)
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	observed := c.tracker.Observe(endpoint, resp.Header)

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body", err)
	}

	if err := c.checkResponseStatus(endpoint, resp.StatusCode, body, observed); err != nil {
		return nil, err
	}
	return body, nil
}

// typeForResponse maps a failed response to an error type. The error code
// wins over the status: old endpoints still answer a throttled client with
// 420 or 400 and code 88.
func typeForResponse(status int, payload *ErrorResponse) errs.ErrorType {
	switch {
	case payload.HasCode(CodeRateLimitExceeded):
		return errs.ErrorTypeRateLimit
	case payload.HasCode(CodeNoUserMatches), payload.HasCode(CodeUserNotFound):
		return errs.ErrorTypeNotFound
	case payload.HasCode(CodeUserSuspended):
		return errs.ErrorTypeForbidden
	}
	return errs.TypeForStatus(status)
}

// checkResponseStatus maps a non-200 status to a typed remote error
func (c *Client) checkResponseStatus(endpoint string, status int, body []byte, observed bool) error {
	if status == http.StatusOK {
		return nil
	}

	var payload ErrorResponse
	message := http.StatusText(status)
	if json.Unmarshal(body, &payload) == nil {
		if m := payload.Message(); m != "" {
			message = m
		}
	}

	errType := typeForResponse(status, &payload)
	fields := map[string]interface{}{
		"endpoint": endpoint,
		"status":   status,
		"message":  message,
	}

	switch errType {
	case errs.ErrorTypeRateLimit:
		if !observed {
			c.tracker.MarkExhausted(endpoint, time.Now().Add(defaultWindow))
		}
		c.logger.WarnWithFields("rate limit exceeded", fields)
	case errs.ErrorTypeServerError:
		c.logger.ErrorWithFields("server error", fields)
	default:
		// 401/403/404 are routine here: protected, suspended or unknown accounts
		c.logger.DebugWithFields("API error", fields)
	}

	return errs.New(errType, status, message)
}
