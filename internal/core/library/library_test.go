// SPDX-License-Identifier: Apache-2.0

package library_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusari-oss/stencil/internal/core/library"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestInitAndLoadActions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lib")

	info, err := library.Init(dir, false)
	require.NoError(t, err)
	assert.True(t, info.Valid)

	writeFile(t, filepath.Join(info.ActionsDir, "team.json"), `[{"action":"acme:deploy","label":"Deploy"}]`)
	writeFile(t, filepath.Join(info.ActionsDir, "broken.yaml"), "actions: {")
	writeFile(t, filepath.Join(info.ActionsDir, "notes.txt"), "ignored")

	defs, failures, err := library.LoadActions(info.ActionsDir)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "broken.yaml", filepath.Base(failures[0].Path))

	keys := map[string]bool{}
	for _, d := range defs {
		keys[d.Action] = true
	}
	assert.True(t, keys["acme:deploy"])
	assert.True(t, keys["fetch:template"], "builtin table is seeded on init")
}

func TestResolvePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv(library.HomeEnv, home)

	cmdline := filepath.Join(t.TempDir(), "cmdline")
	_, err := library.Init(cmdline, false)
	require.NoError(t, err)

	info, err := library.NewManager("", cmdline).ResolvePath()
	require.NoError(t, err)
	assert.Equal(t, "cmdline", info.Source)

	// falls through to STENCIL_HOME once it exists
	_, err = library.NewManager("", filepath.Join(home, "missing")).ResolvePath()
	require.Error(t, err)

	_, err = library.Init(filepath.Join(home, "library"), false)
	require.NoError(t, err)
	info, err = library.NewManager("/not/here", "").ResolvePath()
	require.NoError(t, err)
	assert.Equal(t, "env", info.Source)
	assert.Equal(t, filepath.Join(home, "library"), info.Path)

	diag := library.NewManager("", "").Diagnostics()
	assert.Equal(t, home, diag["stencil_home"])
	assert.Contains(t, diag, "resolved_library")
}

func TestInspectReportsMissingDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "actions"), 0755))

	info := library.Inspect(dir, "config")
	assert.True(t, info.Exists)
	assert.False(t, info.Valid)
	require.Len(t, info.Errors, 1)
	assert.Contains(t, info.Errors[0], "templates")
}

func TestTemplates(t *testing.T) {
	info, err := library.Init(t.TempDir(), false)
	require.NoError(t, err)
	writeFile(t, filepath.Join(info.TemplatesDir, "service.yaml"), "metadata:\n  name: service\n")

	names, err := library.ListTemplates(info)
	require.NoError(t, err)
	assert.Equal(t, []string{"service"}, names)

	p, err := library.TemplatePath(info, "service")
	require.NoError(t, err)
	assert.Equal(t, "service.yaml", filepath.Base(p))

	_, err = library.TemplatePath(info, "nope")
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	t.Setenv(library.HomeEnv, "/srv/stencil")
	assert.Equal(t, "/srv/stencil/library", library.ExpandPath("~/.stencil/library"))
	assert.Equal(t, "/srv/stencil/other", library.ExpandPath("~/other"))
	assert.Equal(t, "/abs", library.ExpandPath("/abs"))
}

func TestUpdater(t *testing.T) {
	src := t.TempDir()
	lib := t.TempDir()

	writeFile(t, filepath.Join(src, "actions", "team.yaml"), "- action: acme:deploy\n")
	writeFile(t, filepath.Join(src, "actions", "bad.json"), "{")
	writeFile(t, filepath.Join(src, "templates", "svc.yaml"), "metadata:\n  name: svc\n")
	writeFile(t, filepath.Join(src, "templates", "list.yaml"), "- not a template\n")

	dry := library.NewUpdater(lib, src, false, true)
	_, err := dry.Update()
	require.NoError(t, err)
	assert.Equal(t, 2, dry.Stats().Created)
	assert.Equal(t, 2, dry.Stats().Invalid)
	assert.NoFileExists(t, filepath.Join(lib, "actions", "team.yaml"))

	u := library.NewUpdater(lib, src, false, false)
	changes, err := u.Update()
	require.NoError(t, err)
	assert.Len(t, changes, 4)
	assert.FileExists(t, filepath.Join(lib, "actions", "team.yaml"))
	assert.FileExists(t, filepath.Join(lib, "templates", "svc.yaml"))
	assert.NoFileExists(t, filepath.Join(lib, "actions", "bad.json"))

	again := library.NewUpdater(lib, src, false, false)
	_, err = again.Update()
	require.NoError(t, err)
	assert.Equal(t, 2, again.Stats().Skipped)

	forced := library.NewUpdater(lib, src, true, false)
	_, err = forced.Update()
	require.NoError(t, err)
	assert.Equal(t, 2, forced.Stats().Updated)
}
