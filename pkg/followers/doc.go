// Package followers pulls the follower graph of a list of root accounts.
//
// Each root moves through start, paging and one final state: exhausted
// when the listing ends, limit_reached once more than the configured
// number of followers was pulled, or skipped when the API refuses the root
// (protected or unknown accounts). A skipped root keeps the pages it got.
// Edges are handed to the EdgeSink whenever a root leaves paging, so the
// edge file always matches the returned mapping.
package followers
