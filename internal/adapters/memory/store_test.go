// SPDX-License-Identifier: Apache-2.0

package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusari-oss/stencil/internal/adapters/memory"
	"github.com/kusari-oss/stencil/internal/core/store/storetest"
)

func TestMemoryStore_Contract(t *testing.T) {
	storetest.RunContract(t, memory.New())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	value := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
