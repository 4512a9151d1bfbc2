// SPDX-License-Identifier: Apache-2.0

package defaults

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

//go:embed actions/*
var embeddedFiles embed.FS

// BuiltinActionsFile is the embedded path of the built-in action table.
const BuiltinActionsFile = "actions/builtin.yaml"

// BuiltinActions returns the raw built-in action table.
func BuiltinActions() []byte {
	data, err := embeddedFiles.ReadFile(BuiltinActionsFile)
	if err != nil {
		// the file is compiled in; a failure here is a build defect
		panic(fmt.Sprintf("embedded %s missing: %v", BuiltinActionsFile, err))
	}
	return data
}

// UIField is an entry of the custom field vocabulary.
type UIField struct {
	Field       string `json:"field" yaml:"field"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// UIWidget is an entry of the widget vocabulary.
type UIWidget struct {
	Widget      string `json:"widget" yaml:"widget"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

var uiFields = []UIField{
	{Field: "EntityPicker", Label: "Entity Picker", Description: "Searchable dropdown that queries the Backstage catalog"},
	{Field: "RepoUrlPicker", Label: "Repo URL Picker", Description: "Repository URL selector with host/owner/repo fields"},
	{Field: "RepoBranchPicker", Label: "Branch Picker", Description: "Branch selector with autocompletion"},
	{Field: "RepoOwnerPicker", Label: "Repo Owner Picker", Description: "Repository owner selector"},
	{Field: "OwnerPicker", Label: "Owner Picker", Description: "Catalog-based user/group picker"},
	{Field: "Secret", Label: "Secret Input", Description: "Masked input for sensitive values"},
}

var uiWidgets = []UIWidget{
	{Widget: "textarea", Label: "Text Area", Description: "Multi-line text input"},
	{Widget: "password", Label: "Password", Description: "Masked password input"},
	{Widget: "radio", Label: "Radio Buttons", Description: "Radio button group"},
	{Widget: "select", Label: "Select Dropdown", Description: "Dropdown select"},
	{Widget: "checkboxes", Label: "Checkboxes", Description: "Checkbox group"},
	{Widget: "hidden", Label: "Hidden", Description: "Hidden field"},
}

// UIFields returns a copy of the supported ui:field values.
func UIFields() []UIField {
	return append([]UIField(nil), uiFields...)
}

// UIWidgets returns a copy of the supported ui:widget values.
func UIWidgets() []UIWidget {
	return append([]UIWidget(nil), uiWidgets...)
}

// IsUIField reports whether name is a known ui:field.
func IsUIField(name string) bool {
	for _, f := range uiFields {
		if f.Field == name {
			return true
		}
	}
	return false
}

// IsUIWidget reports whether name is a known ui:widget.
func IsUIWidget(name string) bool {
	for _, w := range uiWidgets {
		if w.Widget == name {
			return true
		}
	}
	return false
}

// CopyDefaults writes the embedded action files into dstDir, creating it if
// needed. Existing files are left alone unless overwrite is set. It returns
// the paths that were written.
func CopyDefaults(dstDir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating directory %s: %w", dstDir, err)
	}

	var written []string
	err := fs.WalkDir(embeddedFiles, "actions", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		dst := filepath.Join(dstDir, path.Base(p))
		if !overwrite {
			if _, err := os.Stat(dst); err == nil {
				return nil
			}
		}

		data, err := embeddedFiles.ReadFile(p)
		if err != nil {
			return fmt.Errorf("error reading embedded file %s: %w", p, err)
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return fmt.Errorf("error writing %s: %w", dst, err)
		}
		written = append(written, dst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

// ListEmbeddedFiles returns the paths of all embedded default files.
func ListEmbeddedFiles() ([]string, error) {
	var files []string

	err := fs.WalkDir(embeddedFiles, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking embedded files: %w", err)
	}

	return files, nil
}
