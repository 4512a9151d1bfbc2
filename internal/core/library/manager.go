// SPDX-License-Identifier: Apache-2.0

// Package library manages a local directory of action definition files and
// starter templates.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kusari-oss/stencil/internal/core/catalog"
	"github.com/kusari-oss/stencil/internal/core/format"
	"github.com/kusari-oss/stencil/internal/defaults"
)

// HomeEnv overrides the stencil home directory.
const HomeEnv = "STENCIL_HOME"

// DefaultPath is the library used when nothing else is configured.
const DefaultPath = "~/.stencil/library"

// Manager resolves and reads a library directory.
type Manager struct {
	globalLibraryPath  string
	cmdLineLibraryPath string
}

// Info describes a resolved library.
type Info struct {
	Path         string   `json:"path"`
	Source       string   `json:"source"` // cmdline, env, config or default
	ActionsDir   string   `json:"actions_dir"`
	TemplatesDir string   `json:"templates_dir"`
	Exists       bool     `json:"exists"`
	Valid        bool     `json:"valid"`
	Errors       []string `json:"errors,omitempty"`
}

// FileError is a library file that could not be read.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func NewManager(globalLibraryPath, cmdLineLibraryPath string) *Manager {
	return &Manager{
		globalLibraryPath:  globalLibraryPath,
		cmdLineLibraryPath: cmdLineLibraryPath,
	}
}

// ResolvePath picks the first valid library in precedence order: the
// command line flag, $STENCIL_HOME/library, the config file setting, then
// the default path.
func (m *Manager) ResolvePath() (*Info, error) {
	var envPath string
	if home := os.Getenv(HomeEnv); home != "" {
		envPath = filepath.Join(home, "library")
	}

	candidates := []struct {
		path   string
		source string
	}{
		{m.cmdLineLibraryPath, "cmdline"},
		{envPath, "env"},
		{m.globalLibraryPath, "config"},
		{DefaultPath, "default"},
	}

	var tried []string
	var last *Info
	for _, c := range candidates {
		if c.path == "" {
			continue
		}
		info := Inspect(ExpandPath(c.path), c.source)
		if info.Valid {
			return info, nil
		}
		last = info
		tried = append(tried, fmt.Sprintf("%s (%s): %s", info.Path, c.source, strings.Join(info.Errors, ", ")))
	}

	if last == nil {
		return nil, fmt.Errorf("no library paths configured")
	}
	last.Errors = tried
	return last, fmt.Errorf("no valid library found. Tried:\n  - %s", strings.Join(tried, "\n  - "))
}

// Inspect checks that path has the library layout.
func Inspect(path, source string) *Info {
	info := &Info{
		Path:         path,
		Source:       source,
		ActionsDir:   filepath.Join(path, "actions"),
		TemplatesDir: filepath.Join(path, "templates"),
		Errors:       []string{},
	}

	if _, err := os.Stat(path); err != nil {
		info.Errors = append(info.Errors, "library directory does not exist")
		return info
	}
	info.Exists = true

	var missing []string
	for name, dir := range map[string]string{"actions": info.ActionsDir, "templates": info.TemplatesDir} {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		info.Errors = append(info.Errors, fmt.Sprintf("missing required subdirectories: %s", strings.Join(missing, ", ")))
		return info
	}

	info.Valid = true
	return info
}

// Init creates the library layout at path and seeds the actions directory
// with the built-in action table.
func Init(path string, overwrite bool) (*Info, error) {
	path = ExpandPath(path)
	for _, sub := range []string{"actions", "templates"} {
		if err := os.MkdirAll(filepath.Join(path, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}
	if _, err := defaults.CopyDefaults(filepath.Join(path, "actions"), overwrite); err != nil {
		return nil, err
	}
	return Inspect(path, "init"), nil
}

// LoadActions parses every data file in dir. Files that fail to parse are
// reported individually and do not stop the others.
func LoadActions(dir string) ([]catalog.ActionDefinition, []*FileError, error) {
	files, err := dataFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	var defs []catalog.ActionDefinition
	var failures []*FileError
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			failures = append(failures, &FileError{Path: f, Err: err})
			continue
		}
		contentType := "application/yaml"
		if format.KindFromPath(f) == format.JSON {
			contentType = "application/json"
		}
		parsed, err := catalog.Parse(data, contentType)
		if err != nil {
			failures = append(failures, &FileError{Path: f, Err: err})
			continue
		}
		defs = append(defs, parsed...)
	}
	return defs, failures, nil
}

// ListTemplates returns template names (file names without extension) in
// the templates directory.
func ListTemplates(info *Info) ([]string, error) {
	files, err := dataFiles(info.TemplatesDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		base := filepath.Base(f)
		names = append(names, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return names, nil
}

// TemplatePath finds the file for a template name.
func TemplatePath(info *Info, name string) (string, error) {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		p := filepath.Join(info.TemplatesDir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("template %q not found in %s", name, info.TemplatesDir)
}

// Diagnostics reports how the library would be resolved.
func (m *Manager) Diagnostics() map[string]any {
	diag := map[string]any{
		"cmdline_library_path": m.cmdLineLibraryPath,
		"global_library_path":  m.globalLibraryPath,
		"stencil_home":         os.Getenv(HomeEnv),
	}
	if home, err := os.UserHomeDir(); err == nil {
		diag["user_home"] = home
	} else {
		diag["user_home_error"] = err.Error()
	}

	info, err := m.ResolvePath()
	if err != nil {
		diag["resolution_error"] = err.Error()
	}
	if info != nil {
		diag["resolved_library"] = info
	}
	return diag
}

func dataFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && format.IsDataFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ExpandPath expands a leading ~ to $STENCIL_HOME when set, otherwise the
// user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home := os.Getenv(HomeEnv)
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return path
		}
	} else if path == "~/.stencil" || strings.HasPrefix(path, "~/.stencil/") {
		// STENCIL_HOME already points at the .stencil directory
		return filepath.Join(home, strings.TrimPrefix(path, "~/.stencil"))
	}

	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
