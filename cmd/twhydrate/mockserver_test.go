package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"twhydrate/pkg/logger"
	"twhydrate/pkg/ratelimit"
	"twhydrate/pkg/record"
	"twhydrate/pkg/retry"
	"twhydrate/pkg/twitter"
)

// mockTwitterServer simulates users/lookup and followers/ids. A lookup
// naming any suspended ID fails as a whole, the way the live API rejects a
// batch it cannot resolve at all.
type mockTwitterServer struct {
	server       *httptest.Server
	suspended    map[int64]bool
	protected    map[int64]bool
	followers    map[int64][]int64
	pageSize     int
	requestCount int32
	mu           sync.Mutex
	lookups      []int // size of every lookup request, in order
}

func newMockTwitterServer(t *testing.T) *mockTwitterServer {
	t.Helper()
	m := &mockTwitterServer{
		suspended: make(map[int64]bool),
		protected: make(map[int64]bool),
		followers: make(map[int64][]int64),
		pageSize:  2,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(twitter.UsersLookupEndpoint, m.handleLookup)
	mux.HandleFunc(twitter.FollowerIDsEndpoint, m.handleFollowerIDs)
	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockTwitterServer) client() *twitter.Client {
	return twitter.NewClientWithHTTP(m.server.Client(), twitter.Options{
		BaseURL:         m.server.URL,
		PageSize:        m.pageSize,
		WaitOnRateLimit: true,
		Retry: &retry.Config{
			MaxAttempts: 2,
			Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
			Logger:      logger.NewNopLogger(),
		},
	}, logger.NewNopLogger())
}

func (m *mockTwitterServer) setRateHeaders(w http.ResponseWriter) {
	w.Header().Set(ratelimit.HeaderLimit, "900")
	w.Header().Set(ratelimit.HeaderRemaining, "899")
	w.Header().Set(ratelimit.HeaderReset, strconv.FormatInt(time.Now().Add(15*time.Minute).Unix(), 10))
}

func (m *mockTwitterServer) handleLookup(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	m.setRateHeaders(w)

	var ids []int64
	for _, s := range strings.Split(r.URL.Query().Get("user_id"), ",") {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			m.sendError(w, http.StatusBadRequest, 44, "user_id parameter is invalid.")
			return
		}
		ids = append(ids, id)
	}

	m.mu.Lock()
	m.lookups = append(m.lookups, len(ids))
	m.mu.Unlock()

	users := make([]record.Raw, 0, len(ids))
	for _, id := range ids {
		if m.suspended[id] {
			m.sendError(w, http.StatusForbidden, 63, "User has been suspended.")
			return
		}
		users = append(users, record.Fixture(id, "user"+strconv.FormatInt(id, 10)))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (m *mockTwitterServer) handleFollowerIDs(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	m.setRateHeaders(w)

	root, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	cursor, _ := strconv.ParseInt(r.URL.Query().Get("cursor"), 10, 64)
	if cursor < 0 {
		cursor = 0
	}

	// a protected root serves its first page and then refuses
	if m.protected[root] && cursor > 0 {
		m.sendError(w, http.StatusUnauthorized, 179, "Sorry, you are not authorized to see this status.")
		return
	}

	all := m.followers[root]
	end := int(cursor) + m.pageSize
	next := int64(end)
	if end >= len(all) {
		end = len(all)
		next = 0
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ids":                 all[cursor:end],
		"next_cursor":         next,
		"previous_cursor":     0,
		"next_cursor_str":     strconv.FormatInt(next, 10),
		"previous_cursor_str": "0",
	})
}

func (m *mockTwitterServer) sendError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"errors": []map[string]interface{}{{"code": code, "message": message}},
	})
}

// GetRequestCount returns the number of API requests served
func (m *mockTwitterServer) GetRequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}
