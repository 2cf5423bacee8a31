/*
Package metrics exposes the Prometheus metrics registered by the other
packages over HTTP.

Each package declares its own collectors with promauto against the default
registry:

	twhydrate_api_requests_total{endpoint,status}        pkg/twitter
	twhydrate_api_request_duration_seconds{endpoint}     pkg/twitter
	twhydrate_rate_limit_remaining{endpoint}             pkg/ratelimit
	twhydrate_rate_limit_waits_total{endpoint}           pkg/ratelimit
	twhydrate_lookup_batches_total{mode,path}            pkg/hydrate
	twhydrate_users_processed_total{mode}                pkg/hydrate
	twhydrate_lookup_failures_total{mode}                pkg/hydrate
	twhydrate_follower_roots_total{state}                pkg/followers
	twhydrate_followers_pulled_total                     pkg/followers

The server is started by the CLI when metrics.listen is set.
*/
package metrics
