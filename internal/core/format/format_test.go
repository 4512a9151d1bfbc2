// SPDX-License-Identifier: Apache-2.0

package format

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoEntry struct {
	URL     string   `json:"url" yaml:"url"`
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Tags    []string `json:"tags" yaml:"tags"`
}

func TestParseData(t *testing.T) {
	want := repoEntry{URL: "https://example.com/actions.yaml", Enabled: true, Tags: []string{"a", "b"}}

	t.Run("yaml", func(t *testing.T) {
		var got repoEntry
		err := ParseData([]byte("url: https://example.com/actions.yaml\nenabled: true\ntags:\n  - a\n  - b\n"), &got)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("json", func(t *testing.T) {
		var got repoEntry
		err := ParseData([]byte(`{"url":"https://example.com/actions.yaml","enabled":true,"tags":["a","b"]}`), &got)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("neither", func(t *testing.T) {
		var got repoEntry
		err := ParseData([]byte("url: [unterminated"), &got)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse as YAML")
		assert.Contains(t, err.Error(), "JSON")
	})
}

func TestKinds(t *testing.T) {
	tests := []struct {
		in   string
		path Kind
		mime Kind
	}{
		{in: "actions.json", path: JSON, mime: YAML},
		{in: "actions.YAML", path: YAML, mime: YAML},
		{in: "application/json; charset=utf-8", path: YAML, mime: JSON},
		{in: "application/vnd.github+json", path: YAML, mime: JSON},
		{in: "text/plain", path: YAML, mime: YAML},
		{in: "", path: YAML, mime: YAML},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.path, KindFromPath(tt.in))
			assert.Equal(t, tt.mime, KindFromContentType(tt.in))
		})
	}

	assert.True(t, IsDataFile("a.yml"))
	assert.True(t, IsDataFile("a.json"))
	assert.False(t, IsDataFile("a.txt"))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	entry := repoEntry{URL: "https://x", Tags: []string{"p"}}

	t.Run("yaml with two-space indent", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "out.yaml")
		require.NoError(t, WriteFile(path, entry))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "url: https://x")
		assert.Contains(t, string(content), "tags:\n  - p")

		var got repoEntry
		require.NoError(t, ParseFile(path, &got))
		assert.Equal(t, entry, got)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "out.json")
		require.NoError(t, WriteFile(path, entry))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"url": "https://x"`)
	})

	t.Run("missing file", func(t *testing.T) {
		var got repoEntry
		err := ParseFile(filepath.Join(dir, "absent.yaml"), &got)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading file")
	})
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(map[string]int{"b": 2, "a": 1}, YAML)
	require.NoError(t, err)
	assert.Equal(t, "a: 1\nb: 2\n", string(out))

	out, err = Marshal(map[string]int{"a": 1}, JSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(out))
}
