// Package hydrate resolves large lists of user IDs or screen names into
// UserRecords.
//
// Input is split into batches of up to 100. Each batch is looked up in a
// single call. When that call fails with a remote error (or returns a
// record that cannot be built) the batch is retried one identifier at a
// time, so a single suspended or invalid account costs only itself.
// Identifiers that fail alone are counted in Stats.Failures and left out
// of the result. Local errors, including context cancellation, stop the
// run and are returned together with the partial result.
package hydrate
