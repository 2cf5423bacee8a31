// Package ratelimit tracks the Twitter API's per-endpoint rate limit
// windows.
//
// Every response carries x-rate-limit-remaining and x-rate-limit-reset
// headers. The Tracker remembers them per endpoint, and when a window is
// exhausted Wait sleeps until the announced reset (capped by a maximum
// wait) before the next call is made:
//
//	tracker := ratelimit.NewTracker(16 * time.Minute)
//	if err := tracker.Wait(ctx, "/1.1/followers/ids.json"); err != nil {
//		return err
//	}
//	resp, err := httpClient.Do(req)
//	tracker.Observe("/1.1/followers/ids.json", resp.Header)
package ratelimit
