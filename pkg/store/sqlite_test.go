package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twhydrate/pkg/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "twhydrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func build(t *testing.T, id int64, handle string) record.UserRecord {
	t.Helper()
	u, err := record.Build(record.Fixture(id, handle))
	require.NoError(t, err)
	return u
}

func TestSaveUsersUpserts(t *testing.T) {
	s := openTestStore(t)

	jack := build(t, 12, "jack")
	require.NoError(t, s.SaveUsers(map[int64]record.UserRecord{
		12: jack,
		20: build(t, 20, "biz"),
	}))

	jack.FollowersCount = 999
	offset := int64(-25200)
	jack.UTCOffset = &offset
	require.NoError(t, s.SaveUsers(map[int64]record.UserRecord{12: jack}))

	n, err := s.CountUsers()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := s.GetUser(12)
	require.NoError(t, err)
	assert.Equal(t, jack, got.Record())
	assert.False(t, got.HydratedAt.IsZero())
}

func TestSaveUsersParsesAccountCreated(t *testing.T) {
	s := openTestStore(t)

	jack := build(t, 12, "jack")
	odd := build(t, 13, "odd")
	odd.CreatedAt = "yesterday"
	require.NoError(t, s.SaveUsers(map[int64]record.UserRecord{12: jack, 13: odd}))

	got, err := s.GetUser(12)
	require.NoError(t, err)
	require.NotNil(t, got.AccountCreated)
	assert.True(t, got.AccountCreated.Equal(time.Date(2018, 10, 10, 20, 19, 24, 0, time.UTC)))

	got, err = s.GetUser(13)
	require.NoError(t, err)
	assert.Nil(t, got.AccountCreated)
	assert.Equal(t, "yesterday", got.Record().CreatedAt)
}

func TestOpenNotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.tsv")
	require.NoError(t, os.WriteFile(path, []byte("screen_name\tname\tid\nthis is not sqlite at all, just a tsv file\n"), 0644))

	s, err := Open(path)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestGetUserMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetUser(404)
	assert.Error(t, err)
}

func TestWriteEdgesReplacesRoot(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.WriteEdges(1, []int64{30, 10, 20, 10}))
	require.NoError(t, s.WriteEdges(2, []int64{5}))

	ids, err := s.Followers(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 10, 20, 10}, ids, "page order and duplicates kept")

	require.NoError(t, s.WriteEdges(1, []int64{7}))
	ids, err = s.Followers(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)

	other, err := s.Followers(2)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, other)
}

func TestSaveUsersEmpty(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.SaveUsers(nil))
}
