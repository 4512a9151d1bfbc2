// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kusari-oss/stencil/internal/core/models"
)

// Raw shapes of the textual format. Every field is optional; defaults are
// applied when mapping to the model.

type rawTemplate struct {
	APIVersion string      `yaml:"apiVersion"`
	Metadata   rawMetadata `yaml:"metadata"`
	Spec       rawSpec     `yaml:"spec"`
}

type rawMetadata struct {
	Name        string            `yaml:"name"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Tags        []string          `yaml:"tags"`
	Annotations map[string]string `yaml:"annotations"`
}

type rawSpec struct {
	Owner      string    `yaml:"owner"`
	System     string    `yaml:"system"`
	Type       string    `yaml:"type"`
	Parameters yaml.Node `yaml:"parameters"`
	Steps      []rawStep `yaml:"steps"`
	Output     rawOutput `yaml:"output"`
}

type rawParameterStep struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Required    []string  `yaml:"required"`
	Properties  yaml.Node `yaml:"properties"`
}

type rawProperty struct {
	Title       string         `yaml:"title"`
	Type        string         `yaml:"type"`
	Description string         `yaml:"description"`
	Default     any            `yaml:"default"`
	Enum        []string       `yaml:"enum"`
	EnumNames   []string       `yaml:"enumNames"`
	Pattern     string         `yaml:"pattern"`
	MinLength   *int           `yaml:"minLength"`
	MaxLength   *int           `yaml:"maxLength"`
	UniqueItems bool           `yaml:"uniqueItems"`
	Items       *rawItems      `yaml:"items"`
	UIField     string         `yaml:"ui:field"`
	UIWidget    string         `yaml:"ui:widget"`
	UIOptions   map[string]any `yaml:"ui:options"`
	UIAutofocus bool           `yaml:"ui:autofocus"`
}

type rawItems struct {
	Type string   `yaml:"type"`
	Enum []string `yaml:"enum"`
}

type rawStep struct {
	ID     string    `yaml:"id"`
	Name   string    `yaml:"name"`
	Action string    `yaml:"action"`
	Input  yaml.Node `yaml:"input"`
	If     string    `yaml:"if"`
}

type rawOutput struct {
	Links []rawLink `yaml:"links"`
}

type rawLink struct {
	Title     string `yaml:"title"`
	URL       string `yaml:"url"`
	Icon      string `yaml:"icon"`
	EntityRef string `yaml:"entityRef"`
}

// Decode parses template text. Parameter steps always receive fresh IDs;
// action step IDs are kept from the text when present.
func Decode(data []byte) (*models.Template, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Reason: "cannot parse document", Err: err}
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, &FormatError{Reason: "unexpected document shape", Err: ErrNotMapping}
	}

	var raw rawTemplate
	if err := root.Decode(&raw); err != nil {
		return nil, &FormatError{Reason: "unexpected field type", Err: err}
	}

	params, err := decodeParameters(&raw.Spec.Parameters)
	if err != nil {
		return nil, err
	}
	steps, err := decodeSteps(raw.Spec.Steps)
	if err != nil {
		return nil, err
	}

	t := &models.Template{
		APIVersion: orDefault(raw.APIVersion, models.DefaultAPIVersion),
		Kind:       models.TemplateKind,
		Metadata: models.Metadata{
			Name:        orDefault(raw.Metadata.Name, models.DefaultName),
			Title:       orDefault(raw.Metadata.Title, models.DefaultTitle),
			Description: raw.Metadata.Description,
			Tags:        nonNil(models.UniqueStrings(raw.Metadata.Tags)),
			Annotations: raw.Metadata.Annotations,
		},
		Spec: models.Spec{
			Owner:      orDefault(raw.Spec.Owner, models.DefaultOwner),
			System:     raw.Spec.System,
			Type:       orDefault(raw.Spec.Type, models.DefaultType),
			Parameters: params,
			Steps:      steps,
			Output:     decodeOutput(raw.Spec.Output),
		},
	}
	return t, nil
}

func decodeParameters(node *yaml.Node) ([]models.ParameterStep, error) {
	var raws []rawParameterStep
	switch node.Kind {
	case 0:
		return []models.ParameterStep{}, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return []models.ParameterStep{}, nil
		}
		return nil, &FormatError{Reason: "spec.parameters must be a list or a mapping"}
	case yaml.MappingNode:
		var single rawParameterStep
		if err := node.Decode(&single); err != nil {
			return nil, &FormatError{Reason: "invalid spec.parameters", Err: err}
		}
		raws = []rawParameterStep{single}
	case yaml.SequenceNode:
		if err := node.Decode(&raws); err != nil {
			return nil, &FormatError{Reason: "invalid spec.parameters", Err: err}
		}
	default:
		return nil, &FormatError{Reason: "spec.parameters must be a list or a mapping"}
	}

	steps := make([]models.ParameterStep, 0, len(raws))
	for i := range raws {
		props, err := decodeProperties(&raws[i].Properties)
		if err != nil {
			return nil, err
		}
		steps = append(steps, models.ParameterStep{
			ID:          models.NewID(),
			Title:       orDefault(raws[i].Title, models.DefaultStepTitle),
			Description: raws[i].Description,
			Required:    nonNil(raws[i].Required),
			Properties:  props,
		})
	}
	return steps, nil
}

// decodeProperties walks the mapping node pairwise so that display order is
// the order the keys appear in the text.
func decodeProperties(node *yaml.Node) (models.Properties, error) {
	props := models.Properties{}
	if node.Kind != yaml.MappingNode {
		return props, nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var raw rawProperty
		if node.Content[i+1].Kind == yaml.MappingNode {
			if err := node.Content[i+1].Decode(&raw); err != nil {
				return nil, &FormatError{Reason: "invalid property " + key, Err: err}
			}
		}
		props = props.Set(key, decodeProperty(key, raw))
	}
	return props, nil
}

func decodeProperty(key string, raw rawProperty) models.ParameterProperty {
	p := models.ParameterProperty{
		Title:       orDefault(raw.Title, key),
		Type:        models.FieldType(orDefault(raw.Type, string(models.FieldString))),
		Description: raw.Description,
		Default:     raw.Default,
		Enum:        raw.Enum,
		EnumNames:   raw.EnumNames,
		Pattern:     raw.Pattern,
		MinLength:   raw.MinLength,
		MaxLength:   raw.MaxLength,
		UniqueItems: raw.UniqueItems,
		UIField:     raw.UIField,
		UIWidget:    raw.UIWidget,
		UIOptions:   raw.UIOptions,
		UIAutofocus: raw.UIAutofocus,
	}
	if raw.Items != nil {
		p.Items = &models.Items{Type: raw.Items.Type, Enum: raw.Items.Enum}
	}
	return p
}

func decodeSteps(raws []rawStep) ([]models.Step, error) {
	steps := make([]models.Step, 0, len(raws))
	for i, r := range raws {
		id := r.ID
		if id == "" {
			id = models.NewStepID(r.Action)
		}
		input, err := decodeInput(&r.Input)
		if err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("invalid spec.steps[%d].input", i), Err: err}
		}
		steps = append(steps, models.Step{
			ID:     id,
			Name:   orDefault(r.Name, models.DefaultActionName),
			Action: r.Action,
			Input:  input,
			If:     r.If,
		})
	}
	return steps, nil
}

// decodeInput reads a step input mapping with its keys in document order.
func decodeInput(node *yaml.Node) (models.Values, error) {
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return models.Values{}, nil
	}
	v, err := decodeValue(node)
	if err != nil {
		return nil, err
	}
	in, ok := v.(models.Values)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %s", node.ShortTag())
	}
	return in, nil
}

// decodeValue converts a node to a dynamic value. Mappings become
// models.Values so that nested key order is kept too.
func decodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return decodeValue(node.Alias)
	case yaml.MappingNode:
		out := models.Values{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Tag == "!!merge" {
				// merge keys need the full yaml.v3 semantics
				var m map[string]any
				if err := node.Decode(&m); err != nil {
					return nil, err
				}
				return models.ValuesOf(m), nil
			}
			val, err := decodeValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out = out.Set(key.Value, val)
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			val, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func decodeOutput(raw rawOutput) models.Output {
	links := make([]models.OutputLink, 0, len(raw.Links))
	for _, l := range raw.Links {
		links = append(links, models.OutputLink(l))
	}
	return models.Output{Links: links}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
