// Package twitter is a small client for the Twitter v1.1 REST API covering
// the calls twhydrate needs: users/lookup by ID or screen name,
// followers/ids paging and account/verify_credentials.
//
// Requests are signed with OAuth1 user credentials. Every non-200 response
// becomes a typed *errors.Error, so callers can tell remote failures
// (protected, suspended or unknown accounts, throttling) from local ones.
// With WaitOnRateLimit set the client sleeps until an exhausted window
// resets instead of failing.
//
//	client, err := twitter.NewClient(cfg, log)
//	users, err := client.LookupUsersByIDs(ctx, []int64{12, 13})
//	ids, next, err := client.FollowerIDs(ctx, 12, twitter.FirstCursor)
package twitter
