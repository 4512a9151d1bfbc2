// SPDX-License-Identifier: Apache-2.0

package library

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kusari-oss/stencil/internal/core/catalog"
	"github.com/kusari-oss/stencil/internal/core/format"
	"github.com/kusari-oss/stencil/internal/core/transcode"
)

// Change is one file considered by an update.
type Change struct {
	Path   string `json:"path"`
	Action string `json:"action"` // create, update, skip or invalid
	Reason string `json:"reason,omitempty"`
}

// Stats counts the outcome of an update.
type Stats struct {
	Examined int `json:"examined"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// Updater copies action and template files from a source directory into a
// library. Files are checked before they are copied: action files must
// parse as action definitions and templates must decode.
type Updater struct {
	libraryPath string
	sourceDir   string
	force       bool
	dryRun      bool

	stats   Stats
	changes []Change
}

func NewUpdater(libraryPath, sourceDir string, force, dryRun bool) *Updater {
	return &Updater{
		libraryPath: libraryPath,
		sourceDir:   sourceDir,
		force:       force,
		dryRun:      dryRun,
	}
}

// Update runs the copy and returns the per-file changes.
func (u *Updater) Update() ([]Change, error) {
	if !u.dryRun {
		if err := os.MkdirAll(u.libraryPath, 0755); err != nil {
			return nil, fmt.Errorf("error creating library directory: %w", err)
		}
	}

	if err := u.updateDirectory("actions", checkActions); err != nil {
		return u.changes, err
	}
	if err := u.updateDirectory("templates", checkTemplate); err != nil {
		return u.changes, err
	}

	if !u.dryRun {
		stamp := filepath.Join(u.libraryPath, ".last_updated")
		if err := os.WriteFile(stamp, []byte(time.Now().Format(time.RFC3339)), 0644); err != nil {
			return u.changes, fmt.Errorf("error updating state file: %w", err)
		}
	}
	return u.changes, nil
}

// Stats returns the counts of the last Update.
func (u *Updater) Stats() Stats {
	return u.stats
}

func checkActions(data []byte, path string) error {
	contentType := "application/yaml"
	if format.KindFromPath(path) == format.JSON {
		contentType = "application/json"
	}
	_, err := catalog.Parse(data, contentType)
	return err
}

func checkTemplate(data []byte, _ string) error {
	_, err := transcode.Decode(data)
	return err
}

func (u *Updater) updateDirectory(sub string, check func([]byte, string) error) error {
	sourceDir := filepath.Join(u.sourceDir, sub)
	targetDir := filepath.Join(u.libraryPath, sub)

	if _, err := os.Stat(sourceDir); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(sourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !format.IsDataFile(path) {
			return nil
		}
		u.stats.Examined++

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return fmt.Errorf("error computing relative path: %w", err)
		}
		target := filepath.Join(targetDir, rel)

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", path, err)
		}
		if err := check(data, path); err != nil {
			u.stats.Invalid++
			u.changes = append(u.changes, Change{Path: filepath.Join(sub, rel), Action: "invalid", Reason: err.Error()})
			return nil
		}

		action := u.plan(data, target)
		u.changes = append(u.changes, Change{Path: filepath.Join(sub, rel), Action: action})
		switch action {
		case "skip":
			u.stats.Skipped++
			return nil
		case "create":
			u.stats.Created++
		default:
			u.stats.Updated++
		}

		if u.dryRun {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("error creating directory for %s: %w", target, err)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("error writing %s: %w", target, err)
		}
		return nil
	})
}

func (u *Updater) plan(data []byte, target string) string {
	existing, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return "create"
	}
	if err != nil || u.force || !bytes.Equal(existing, data) {
		return "update"
	}
	return "skip"
}
