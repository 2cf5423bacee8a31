// Package retry provides backoff and retry logic for transient failures
// when calling the Twitter API.
//
// Only remote errors of a transient type (network, rate limit, server
// error) are retried. Local errors and context cancellation return
// immediately.
//
//	cfg := retry.FromConfig(appCfg.Retry, log)
//	cfg.Context = ctx
//	err := retry.Do(func() error {
//		body, err = client.get(ctx, endpoint, params)
//		return err
//	}, cfg)
//
// A DelayHint can replace the computed backoff, which the API client uses
// to sleep until an announced rate limit window reset.
package retry
