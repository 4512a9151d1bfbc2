// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/kusari-oss/stencil/internal/core/format"
)

// entry is the loose shape accepted from repositories and files.
type entry struct {
	Action      string        `mapstructure:"action"`
	Label       string        `mapstructure:"label"`
	Name        string        `mapstructure:"name"`
	Description string        `mapstructure:"description"`
	Category    string        `mapstructure:"category"`
	Inputs      []ActionInput `mapstructure:"inputs"`
}

// Parse decodes an action document. Accepted shapes are a list of
// definitions, a mapping with an "actions" list, or a single definition.
// A JSON content type selects strict JSON; anything else is read as YAML
// with JSON fallback.
func Parse(data []byte, contentType string) ([]ActionDefinition, error) {
	var doc any
	if format.KindFromContentType(contentType) == format.JSON {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("error parsing JSON: %w", err)
		}
	} else if err := format.ParseData(data, &doc); err != nil {
		return nil, err
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		if actions, ok := v["actions"]; ok {
			list, ok := actions.([]any)
			if !ok {
				return nil, fmt.Errorf("actions must be a list")
			}
			items = list
		} else {
			items = []any{v}
		}
	case nil:
		return []ActionDefinition{}, nil
	default:
		return nil, fmt.Errorf("unexpected document of type %T", doc)
	}

	defs := make([]ActionDefinition, 0, len(items))
	for _, item := range items {
		if d, ok := normalizeEntry(item); ok {
			defs = append(defs, d)
		}
	}
	return defs, nil
}

// normalizeEntry drops entries without a non-empty string action key.
func normalizeEntry(item any) (ActionDefinition, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return ActionDefinition{}, false
	}
	if key, ok := m["action"].(string); !ok || key == "" {
		return ActionDefinition{}, false
	}

	var e entry
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &e,
	})
	if err != nil {
		return ActionDefinition{}, false
	}
	if err := dec.Decode(m); err != nil {
		return ActionDefinition{}, false
	}

	label := e.Label
	if label == "" {
		label = e.Name
	}
	return ActionDefinition{
		Action:      e.Action,
		Label:       label,
		Description: e.Description,
		Category:    Category(e.Category),
		Inputs:      e.Inputs,
	}.Normalize(), true
}
