// SPDX-License-Identifier: Apache-2.0

// Package format reads and writes loosely structured YAML/JSON documents
// such as action definition files and configuration.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is a serialization format.
type Kind string

const (
	YAML Kind = "yaml"
	JSON Kind = "json"
)

// KindFromPath picks a format from a file extension; anything that is not
// .json is YAML.
func KindFromPath(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

// KindFromContentType maps a MIME type to a format. Unknown types are YAML,
// which also accepts JSON documents.
func KindFromContentType(contentType string) Kind {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	if mt == "application/json" || strings.HasSuffix(mt, "+json") {
		return JSON
	}
	return YAML
}

// IsDataFile reports whether path has a YAML or JSON extension.
func IsDataFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// ParseFile reads and parses a file, trying YAML first, then JSON.
func ParseFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	return ParseData(data, v)
}

// ParseData parses data, trying YAML first, then JSON.
func ParseData(data []byte, v any) error {
	yamlErr := yaml.Unmarshal(data, v)
	if yamlErr == nil {
		return nil
	}
	jsonErr := json.Unmarshal(data, v)
	if jsonErr == nil {
		return nil
	}
	return fmt.Errorf("failed to parse as YAML (%v) or JSON (%v)", yamlErr, jsonErr)
}

// Marshal encodes v in the given format with two-space indentation.
func Marshal(v any, kind Kind) ([]byte, error) {
	if kind == JSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("error marshaling JSON: %w", err)
		}
		return append(data, '\n'), nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("error marshaling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("error marshaling YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile encodes v in the format implied by the path's extension.
func WriteFile(path string, v any) error {
	data, err := Marshal(v, KindFromPath(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
