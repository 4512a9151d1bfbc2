// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusari-oss/stencil/cmd/stencil/cmd/env"
	"github.com/kusari-oss/stencil/internal/core/library"
)

const webTemplate = `apiVersion: scaffolder.backstage.io/v1beta3
kind: Template
metadata:
  name: web
  title: Web
spec:
  owner: team-a
  type: service
  steps:
    - id: log
      name: Log
      action: debug:log
`

// run executes the root command against an isolated STENCIL_HOME.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(&env.Env{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate(t *testing.T) {
	t.Setenv(library.HomeEnv, t.TempDir())
	path := writeFile(t, "web.yaml", webTemplate)

	out, err := run(t, "", "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed: 1 error(s)")
	assert.Contains(t, out, `Step "Log" is missing required input "message"`)

	out, err = run(t, "", "validate", "--json", path)
	require.Error(t, err)
	var report struct {
		Summary struct {
			Errors int `json:"errors"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, 1, report.Summary.Errors)
}

func TestNewAndFmt(t *testing.T) {
	t.Setenv(library.HomeEnv, t.TempDir())

	out, err := run(t, "", "new", "--name", "svc")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: Template")
	assert.Contains(t, out, "name: svc")

	path := writeFile(t, "web.yaml", webTemplate)
	_, err = run(t, "", "fmt", "-w", path)
	require.NoError(t, err)
	formatted, err := os.ReadFile(path)
	require.NoError(t, err)

	// a formatted file is left alone
	out, err = run(t, "", "fmt", "-w", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, formatted, again)
}

func TestDraftLifecycle(t *testing.T) {
	t.Setenv(library.HomeEnv, t.TempDir())
	path := writeFile(t, "web.yaml", webTemplate)

	_, err := run(t, "", "draft", "show", "-n", "web")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no draft named "web"`)

	out, err := run(t, "", "draft", "open", "-n", "web", path)
	require.NoError(t, err)
	assert.Equal(t, "Saved draft web\n", out)

	commands := `[
		{"type":"updateMetadata","patch":{"title":"Web Service"}},
		{"type":"updateStep","id":"log","patch":{"input":{"message":"hello"}}}
	]`
	out, err = run(t, commands, "draft", "apply", "-n", "web", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 2 command(s) to web")
	assert.Contains(t, out, "\n0 error(s)")
	assert.NotContains(t, out, "missing required input")

	out, err = run(t, "", "draft", "show", "-n", "web", "--json")
	require.NoError(t, err)
	var saved struct {
		State struct {
			IsDirty bool `json:"isDirty"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &saved), out)
	assert.True(t, saved.State.IsDirty)

	exported := filepath.Join(t.TempDir(), "out.yaml")
	_, err = run(t, "", "draft", "export", "-n", "web", "-o", exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Web Service")
	assert.Contains(t, string(data), "message: hello")

	out, err = run(t, "", "draft", "show", "-n", "web", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &saved), out)
	assert.False(t, saved.State.IsDirty)

	out, err = run(t, "", "draft", "list")
	require.NoError(t, err)
	assert.Equal(t, "web\n", out)

	_, err = run(t, "", "draft", "clear", "-n", "web")
	require.NoError(t, err)
	out, err = run(t, "", "draft", "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDraftApplyRejectsBadCommands(t *testing.T) {
	t.Setenv(library.HomeEnv, t.TempDir())

	_, err := run(t, "", "draft", "open")
	require.NoError(t, err)

	_, err = run(t, `{"type":"explode"}`, "draft", "apply", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command type "explode"`)

	out, err := run(t, "", "draft", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: Template")
}
