// SPDX-License-Identifier: Apache-2.0

package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusari-oss/stencil/internal/adapters/memory"
	"github.com/kusari-oss/stencil/internal/core/catalog"
)

type failingProvider struct{}

func (failingProvider) Name() string { return "broken" }

func (failingProvider) Actions(context.Context) ([]catalog.ActionDefinition, error) {
	return nil, errors.New("boom")
}

func TestBuiltinActions(t *testing.T) {
	defs, err := catalog.BuiltinActions()
	require.NoError(t, err)
	assert.Len(t, defs, 36)

	idx := catalog.NewIndex(defs...)
	fetch, ok := idx.Lookup("fetch:template")
	require.True(t, ok)
	assert.Equal(t, "Fetch Template", fetch.Label)
	assert.Equal(t, catalog.CategoryFetch, fetch.Category)
	assert.Equal(t, []string{"url"}, fetch.RequiredInputs())

	publish, ok := idx.Lookup("publish:github")
	require.True(t, ok)
	branch, ok := publish.Input("defaultBranch")
	require.True(t, ok)
	assert.Equal(t, "main", branch.Default)
	protect, ok := publish.Input("protectDefaultBranch")
	require.True(t, ok)
	assert.Equal(t, true, protect.Default)

	for _, d := range defs {
		assert.True(t, d.Category.Valid(), d.Action)
		assert.NotEmpty(t, d.Label, d.Action)
	}
	assert.NotEmpty(t, idx.ByCategory(catalog.CategoryUtilities))
}

func TestCatalogPrecedence(t *testing.T) {
	ctx := context.Background()
	builtin := catalog.NewStatic("builtin",
		catalog.ActionDefinition{Action: "debug:log", Label: "Builtin Log", Category: catalog.CategoryDebug},
		catalog.ActionDefinition{Action: "fetch:plain", Label: "Fetch Plain", Category: catalog.CategoryFetch},
	)
	custom := catalog.NewStatic("custom",
		catalog.ActionDefinition{Action: "debug:log", Label: "Custom Log", Category: catalog.CategoryDebug},
		catalog.ActionDefinition{Action: "acme:deploy", Label: "Deploy", Category: catalog.CategoryCustom},
	)
	remote := catalog.NewStatic("repository",
		catalog.ActionDefinition{Action: "debug:log", Label: "Remote Log", Category: catalog.CategoryDebug},
	)

	idx, err := catalog.New(builtin, custom, remote).Load(ctx)
	require.NoError(t, err)

	got, ok := idx.Lookup("debug:log")
	require.True(t, ok)
	assert.Equal(t, "Remote Log", got.Label)

	_, ok = idx.Lookup("Debug:Log")
	assert.False(t, ok, "lookup is case-sensitive")

	var keys []string
	for _, d := range idx.All() {
		keys = append(keys, d.Action)
	}
	assert.Equal(t, []string{"debug:log", "fetch:plain", "acme:deploy"}, keys)
	assert.Equal(t, 3, idx.Len())
	assert.Len(t, idx.ByCategory(catalog.CategoryDebug), 1)
	assert.Empty(t, idx.ByCategory(catalog.CategoryGitLab))
}

func TestCatalogProviderError(t *testing.T) {
	_, err := catalog.New(catalog.NewBuiltin(), failingProvider{}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestCustomActions(t *testing.T) {
	ctx := context.Background()
	custom := catalog.NewCustom(memory.New())

	defs, err := custom.Actions(ctx)
	require.NoError(t, err)
	assert.Empty(t, defs)

	require.NoError(t, custom.Add(ctx, catalog.ActionDefinition{Action: "acme:deploy"}))
	require.NoError(t, custom.Add(ctx, catalog.ActionDefinition{Action: "acme:notify", Label: "Notify", Category: catalog.CategoryGitHub}))
	require.NoError(t, custom.Add(ctx, catalog.ActionDefinition{Action: "acme:deploy", Label: "Deploy v2", Category: "weird"}))

	defs, err = custom.Actions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "Deploy v2", defs[0].Label)
	assert.Equal(t, catalog.CategoryCustom, defs[0].Category)
	assert.NotNil(t, defs[0].Inputs)
	assert.Equal(t, "acme:notify", defs[1].Action)

	removed, err := custom.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = custom.Remove(ctx, "acme:deploy")
	require.NoError(t, err)
	assert.True(t, removed)

	defs, err = custom.Actions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "acme:notify", defs[0].Action)

	assert.Error(t, custom.Add(ctx, catalog.ActionDefinition{}))
}

func TestCustomOverridesBuiltin(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	custom := catalog.NewCustom(s)
	require.NoError(t, custom.Add(ctx, catalog.ActionDefinition{Action: "debug:log", Label: "Team Log"}))

	idx, err := catalog.New(catalog.NewBuiltin(), custom, catalog.NewRepositories(s)).Load(ctx)
	require.NoError(t, err)

	got, ok := idx.Lookup("debug:log")
	require.True(t, ok)
	assert.Equal(t, "Team Log", got.Label)
	assert.Equal(t, "debug:log", idx.All()[12].Action, "override keeps the builtin position")
}
