// Package store is an optional SQLite sink for hydrated users and follower
// edges, enabled by store.sqlite_path.
package store
