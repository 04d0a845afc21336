package blackboard

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBlackboard_GetSet(t *testing.T) {
	t.Parallel()

	var bb Blackboard
	require.Equal(t, 5, bb.Get("missing", 5))
	require.False(t, bb.Has("a"))

	require.NoError(t, bb.Set("a", 1))
	require.True(t, bb.Has("a"))
	require.Equal(t, 1, bb.Get("a", 0))

	require.NoError(t, bb.Set("b", "x"))
	require.Equal(t, []string{"a", "b"}, bb.Keys())
}

func TestBlackboard_LockAndValidator(t *testing.T) {
	t.Parallel()

	bb := New()
	bb.Lock()
	require.ErrorIs(t, bb.Set("a", 1), ErrLocked)
	bb.Unlock()
	require.NoError(t, bb.Set("a", 1))

	bb.SetValidator(func(key string, value any) bool { return key != "forbidden" })
	require.ErrorIs(t, bb.Set("forbidden", 1), ErrRejected)
	require.False(t, bb.Has("forbidden"))
	require.NoError(t, bb.Set("ok", 2))
}

func TestEqual(t *testing.T) {
	t.Parallel()

	require.True(t, Equal(1, 1.0))
	require.True(t, Equal(float32(0.5), 0.5))
	require.True(t, Equal(uint8(0), 0))
	require.False(t, Equal(1, 0))
	require.False(t, Equal(1, "1"))
	require.True(t, Equal("a", "a"))
	require.True(t, Equal(nil, nil))
	require.False(t, Equal(nil, 0))
	require.False(t, Equal([]int{1}, []int{1}))
}

func TestRegistry_FindAttachDetach(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	id := uuid.New()

	_, ok := r.Find(id)
	require.False(t, ok)

	bb := r.Attach(id)
	require.Same(t, bb, r.Attach(id))

	got, ok := r.Find(id)
	require.True(t, ok)
	require.Same(t, bb, got)

	r.Detach(id)
	_, ok = r.Find(id)
	require.False(t, ok)
}
