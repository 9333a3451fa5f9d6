package testutil

import (
	"context"
	"testing"

	"github.com/hupe1980/chatthread/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ContractStore bundles a store under test with a hook writing raw bytes
// into its backing storage.
type ContractStore struct {
	Store  core.ThreadStore
	SetRaw func(key string, data []byte)
}

// RunThreadStoreContract runs the behaviour every core.ThreadStore must
// satisfy. newStore must return an empty store for each subtest.
func RunThreadStoreContract(t *testing.T, newStore func(t *testing.T) ContractStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		cs := newStore(t)
		in := NewThreadBuilder().User("hello").Assistant("hi there").Build()
		require.NoError(t, cs.Store.Save(ctx, "abc", in))

		out, ok, err := cs.Store.Load(ctx, "abc")
		require.NoError(t, err)
		require.True(t, ok)
		AssertThreadEqual(t, in, out)
	})

	t.Run("absent is not an error", func(t *testing.T) {
		cs := newStore(t)
		out, ok, err := cs.Store.Load(ctx, "never-written")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, out)
	})

	t.Run("last write wins", func(t *testing.T) {
		cs := newStore(t)
		v1 := NewThreadBuilder().User("one").Build()
		v2 := NewThreadBuilder().User("two").Assistant("2").Build()
		require.NoError(t, cs.Store.Save(ctx, "s", v1))
		require.NoError(t, cs.Store.Save(ctx, "s", v2))

		out, ok, err := cs.Store.Load(ctx, "s")
		require.NoError(t, err)
		require.True(t, ok)
		AssertThreadEqual(t, v2, out)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		cs := newStore(t)
		require.NoError(t, cs.Store.Save(ctx, "a", NewThreadBuilder().User("for a").Build()))
		_, ok, err := cs.Store.Load(ctx, "b")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty session id", func(t *testing.T) {
		cs := newStore(t)
		assert.ErrorIs(t, cs.Store.Save(ctx, "", core.NewThread()), core.ErrEmptySessionID)
		_, _, err := cs.Store.Load(ctx, "")
		assert.ErrorIs(t, err, core.ErrEmptySessionID)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		cs := newStore(t)
		cs.SetRaw(core.ThreadKey("bad"), []byte("\x80\x04not-a-thread"))
		_, ok, err := cs.Store.Load(ctx, "bad")
		assert.ErrorIs(t, err, core.ErrDeserialization)
		assert.False(t, ok)
	})
}

// AssertThreadEqual compares two threads by content.
func AssertThreadEqual(t *testing.T, want, got *core.Thread) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.Created.Equal(got.Created), "created mismatch")
	assert.True(t, want.Updated.Equal(got.Updated), "updated mismatch")
	assert.Equal(t, want.Messages(), got.Messages())
}
