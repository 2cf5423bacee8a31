package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twhydrate/pkg/checkpoint"
	"twhydrate/pkg/config"
	errs "twhydrate/pkg/errors"
	"twhydrate/pkg/followers"
	"twhydrate/pkg/logger"
	"twhydrate/pkg/record"
	"twhydrate/pkg/store"
)

// fakeAPI rejects any bulk lookup containing a poisoned ID and any single
// lookup of it, and serves follower pages from a fixed table
type fakeAPI struct {
	poisoned map[int64]bool
	pages    map[int64][][]int64
	failRoot map[int64]int // root -> page index that errors
	calls    map[int64]int
}

func (f *fakeAPI) LookupUsersByIDs(ctx context.Context, ids []int64) ([]record.Raw, error) {
	out := make([]record.Raw, 0, len(ids))
	for _, id := range ids {
		if f.poisoned[id] {
			return nil, errs.New(errs.ErrorTypeNotFound, 404, "No user matches for specified terms.")
		}
		out = append(out, record.Fixture(id, "user"+strings.Repeat("x", int(id%3))))
	}
	return out, nil
}

func (f *fakeAPI) LookupUsersByHandles(ctx context.Context, handles []string) ([]record.Raw, error) {
	out := make([]record.Raw, 0, len(handles))
	for i, h := range handles {
		out = append(out, record.Fixture(int64(1000+i), h))
	}
	return out, nil
}

func (f *fakeAPI) FollowerIDs(ctx context.Context, root, cursor int64) ([]int64, int64, error) {
	if f.calls == nil {
		f.calls = make(map[int64]int)
	}
	page := f.calls[root]
	f.calls[root]++

	if at, ok := f.failRoot[root]; ok && page == at {
		return nil, 0, errs.New(errs.ErrorTypeAuth, 401, "Not authorized.")
	}
	pages := f.pages[root]
	next := int64(0)
	if page+1 < len(pages) {
		next = int64(page + 2)
	}
	return pages[page], next, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.Directory = t.TempDir()
	return cfg
}

func TestHydrateUsersWritesTSV(t *testing.T) {
	cfg := testConfig(t)
	ids := make([]int64, 150)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	api := &fakeAPI{poisoned: map[int64]bool{137: true}}

	res, path, err := hydrateUsers(context.Background(), cfg, api, userInput{IDs: ids}, logger.NewNopLogger(), nil)
	require.NoError(t, err)

	assert.Len(t, res.Users, 149)
	assert.Equal(t, 1, res.Stats.Failures)
	assert.Equal(t, filepath.Join(cfg.Output.Directory, "users.tsv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 150, "header plus one row per user")
	assert.Equal(t, "screen_name\tname\tid\tlocation\tfollowers_count\tfriends_count\tdescription", lines[0])
}

func TestHydrateUsersSavesToSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "users.db")

	res, _, err := hydrateUsers(context.Background(), cfg, &fakeAPI{}, userInput{Handles: []string{"jack", "biz"}}, logger.NewNopLogger(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Users, 2)

	db, err := store.Open(cfg.Store.SQLitePath)
	require.NoError(t, err)
	defer db.Close()
	n, err := db.CountUsers()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestHydrateUsersCancelledStillWrites(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, path, err := hydrateUsers(ctx, cfg, &fakeAPI{}, userInput{IDs: []int64{1, 2}}, logger.NewNopLogger(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.FileExists(t, path)
}

func threeRoots() *fakeAPI {
	return &fakeAPI{
		pages: map[int64][][]int64{
			1: {{11, 12, 13}, {14, 15}},
			2: {{21, 22, 23, 24, 25}, {26}},
			3: {{31}},
		},
		failRoot: map[int64]int{2: 1},
	}
}

func TestPullJobWritesEdges(t *testing.T) {
	cfg := testConfig(t)
	cfg.Followers.EdgeFile = "edges.tsv"
	cfg.Followers.Limit = 0

	var seen []int64
	job := pullJob{
		cfg:    cfg,
		client: threeRoots(),
		roots:  []int64{1, 2, 3},
		name:   "roots",
		log:    logger.NewNopLogger(),
		onRoot: func(rr followers.RootResult) { seen = append(seen, rr.Root) },
	}

	res, err := job.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{11, 12, 13, 14, 15}, res.Followers[1])
	assert.Equal(t, []int64{21, 22, 23, 24, 25}, res.Followers[2])
	assert.Equal(t, []int64{31}, res.Followers[3])
	assert.Equal(t, 1, res.Stats.Skipped)
	assert.Equal(t, []int64{1, 2, 3}, seen)

	data, err := os.ReadFile(filepath.Join(cfg.Output.Directory, "edges.tsv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 11)
	assert.Equal(t, "2\t21", lines[5])
}

func TestPullJobResume(t *testing.T) {
	cfg := testConfig(t)
	cfg.Followers.Limit = 0
	dir := t.TempDir()

	cpm, err := checkpoint.NewManagerInDir(dir, "roots")
	require.NoError(t, err)
	cp, err := cpm.Create("roots", 0)
	require.NoError(t, err)
	require.NoError(t, cpm.RecordRoot(cp, 1, "exhausted", 5))

	api := threeRoots()
	job := pullJob{
		cfg:           cfg,
		client:        api,
		roots:         []int64{1, 2, 3},
		name:          "roots",
		resume:        true,
		log:           logger.NewNopLogger(),
		checkpointDir: dir,
	}

	res, err := job.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Resumed)
	assert.Zero(t, api.calls[1], "finished root is not pulled again")
	assert.NotContains(t, res.Followers, int64(1))
	assert.False(t, cpm.Exists(), "checkpoint removed after a complete run")
}

func TestReadRoots(t *testing.T) {
	rootsFile = ""
	roots, err := readRoots([]string{"12", "783214"})
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 783214}, roots)

	_, err = readRoots([]string{"jack"})
	assert.Error(t, err)
}
