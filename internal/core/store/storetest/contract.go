// SPDX-License-Identifier: Apache-2.0

// Package storetest holds a contract suite that every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusari-oss/stencil/internal/core/store"
)

// RunContract verifies the get/set/delete/list behavior of s.
func RunContract(t *testing.T, s store.Store) {
	ctx := context.Background()
	prefix := "contract:" + time.Now().Format("20060102150405") + ":"

	t.Run("Set and Get", func(t *testing.T) {
		key := prefix + "value"
		require.NoError(t, s.Set(ctx, key, []byte(`{"a":1}`)))

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(got))
	})

	t.Run("Last write wins", func(t *testing.T) {
		key := prefix + "overwrite"
		require.NoError(t, s.Set(ctx, key, []byte("first")))
		require.NoError(t, s.Set(ctx, key, []byte("second")))

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("Get missing", func(t *testing.T) {
		_, err := s.Get(ctx, prefix+"missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		key := prefix + "doomed"
		require.NoError(t, s.Set(ctx, key, []byte("x")))
		require.NoError(t, s.Delete(ctx, key))

		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.NoError(t, s.Delete(ctx, key), "deleting an absent key is a no-op")
	})

	t.Run("JSON helpers", func(t *testing.T) {
		key := prefix + "json"
		in := map[string][]string{"repos": {"https://a", "https://b"}}
		require.NoError(t, store.SetJSON(ctx, s, key, in))

		var out map[string][]string
		found, err := store.GetJSON(ctx, s, key, &out)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, in, out)

		found, err = store.GetJSON(ctx, s, prefix+"nothing", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("List", func(t *testing.T) {
		listPrefix := prefix + "list:"
		require.NoError(t, s.Set(ctx, listPrefix+"b", []byte("2")))
		require.NoError(t, s.Set(ctx, listPrefix+"a", []byte("1")))
		require.NoError(t, s.Set(ctx, prefix+"other", []byte("3")))

		keys, err := s.List(ctx, listPrefix)
		require.NoError(t, err)
		assert.Equal(t, []string{listPrefix + "a", listPrefix + "b"}, keys)
	})
}
