package kv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitchallenge/fitchallenge-server/internal/store"
)

type record struct {
	UserID string `json:"user_id"`
}

func setupTestKV(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := setupTestKV(t)

	require.NoError(t, s.Put("reset:abc", record{UserID: "user-1"}, time.Hour))

	var got record
	require.NoError(t, s.Get("reset:abc", &got))
	assert.Equal(t, "user-1", got.UserID)

	err := s.Get("reset:missing", &got)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTake_IsSingleUse(t *testing.T) {
	s := setupTestKV(t)
	require.NoError(t, s.Put("reset:abc", record{UserID: "user-1"}, time.Hour))

	var got record
	require.NoError(t, s.Take("reset:abc", &got))
	assert.Equal(t, "user-1", got.UserID)

	err := s.Take("reset:abc", &got)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPut_Expires(t *testing.T) {
	s := setupTestKV(t)
	require.NoError(t, s.Put("reset:short", record{UserID: "user-1"}, time.Second))

	// Badger TTLs have second granularity.
	time.Sleep(2100 * time.Millisecond)

	var got record
	assert.ErrorIs(t, s.Get("reset:short", &got), store.ErrNotFound)
}

func TestDeleteAndPing(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)

	require.NoError(t, s.Ping())
	require.NoError(t, s.Put("k", 1, 0))
	require.NoError(t, s.Delete("k"))
	require.NoError(t, s.Delete("k"))

	var n int
	assert.ErrorIs(t, s.Get("k", &n), store.ErrNotFound)

	require.NoError(t, s.Close())
	assert.Error(t, s.Ping())
}
