// Package kvtest contiene la suite de contrato que todo backend de kv.Store
// debe pasar.
package kvtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot/internal/ports/kv"
)

// Run ejecuta la suite contra stores frescos creados por newStore.
func Run(t *testing.T, newStore func(t *testing.T) kv.Store) {
	t.Helper()

	t.Run("records", func(t *testing.T) { testRecords(t, newStore(t)) })
	t.Run("index", func(t *testing.T) { testIndex(t, newStore(t)) })
	t.Run("log", func(t *testing.T) { testLog(t, newStore(t)) })
	t.Run("scalar", func(t *testing.T) { testScalar(t, newStore(t)) })
}

const kindThing kv.Kind = "thing"

func testRecords(t *testing.T, s kv.Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, kindThing, "a")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Put(ctx, kindThing, "a", []byte(`{"v":1}`)))
	require.NoError(t, s.Put(ctx, kindThing, "a", []byte(`{"v":2}`)))

	got, err := s.Get(ctx, kindThing, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got))

	// Kinds distintos no colisionan.
	_, err = s.Get(ctx, kv.Kind("other"), "a")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Delete(ctx, kindThing, "a"))
	_, err = s.Get(ctx, kindThing, "a")
	require.ErrorIs(t, err, kv.ErrNotFound)

	// Borrar algo inexistente no es error.
	require.NoError(t, s.Delete(ctx, kindThing, "missing"))
}

func testIndex(t *testing.T, s kv.Store) {
	ctx := context.Background()
	const key = "owner_patients:u1"

	members, err := s.IndexMembers(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, members)

	for _, step := range []struct {
		member string
		added  bool
	}{{"p1", true}, {"p2", true}, {"p1", false}} {
		added, err := s.IndexAdd(ctx, key, step.member)
		require.NoError(t, err)
		assert.Equal(t, step.added, added, step.member)
	}

	members, err = s.IndexMembers(ctx, key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, members)

	require.NoError(t, s.IndexRemove(ctx, key, "p1"))
	require.NoError(t, s.IndexRemove(ctx, key, "never-there"))

	members, err = s.IndexMembers(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, members)

	require.NoError(t, s.IndexDrop(ctx, key))
	members, err = s.IndexMembers(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func testLog(t *testing.T, s kv.Store) {
	ctx := context.Background()
	const key = "medication_taken_log:m1"

	entries, err := s.LogRead(ctx, key, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.LogAppend(ctx, key, base.Add(time.Duration(i)*time.Hour)))
	}

	all, err := s.LogRead(ctx, key, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, ts := range all {
		assert.True(t, base.Add(time.Duration(i)*time.Hour).Equal(ts), "entry %d = %s", i, ts)
	}

	last2, err := s.LogRead(ctx, key, 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.True(t, base.Add(3*time.Hour).Equal(last2[0]))
	assert.True(t, base.Add(4*time.Hour).Equal(last2[1]))

	require.NoError(t, s.LogDrop(ctx, key))
	entries, err = s.LogRead(ctx, key, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func testScalar(t *testing.T, s kv.Store) {
	ctx := context.Background()

	_, ok, err := s.ScalarGet(ctx, "user_timezone:u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.ScalarSet(ctx, "user_timezone:u1", "Europe/Madrid"))
	v, ok, err := s.ScalarGet(ctx, "user_timezone:u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Europe/Madrid", v)

	require.NoError(t, s.ScalarDelete(ctx, "user_timezone:u1"))
	_, ok, err = s.ScalarGet(ctx, "user_timezone:u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
