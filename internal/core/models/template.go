// SPDX-License-Identifier: Apache-2.0

package models

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Default values applied when a template is created blank or decoded with
// missing fields.
const (
	DefaultAPIVersion    = "scaffolder.backstage.io/v1beta3"
	TemplateKind         = "Template"
	DefaultName          = "new-template"
	DefaultTitle         = "New Template"
	DefaultOwner         = "my-team"
	DefaultType          = "service"
	DefaultStepTitle     = "Step"
	DefaultActionName    = "Unnamed Step"
	BlankDescription     = "A new Backstage software template"
	BlankParametersTitle = "Provide component information"
)

// FieldType is the JSON-schema type of a parameter property.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
)

// Template is the in-memory representation of a software template document.
type Template struct {
	APIVersion string   `json:"apiVersion"`
	Kind       string   `json:"kind"`
	Metadata   Metadata `json:"metadata"`
	Spec       Spec     `json:"spec"`
}

// Metadata holds the identifying information of a template.
type Metadata struct {
	Name        string            `json:"name"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// Spec holds the wizard, the action pipeline and the output of a template.
type Spec struct {
	Owner      string          `json:"owner"`
	System     string          `json:"system,omitempty"`
	Type       string          `json:"type"`
	Parameters []ParameterStep `json:"parameters"`
	Steps      []Step          `json:"steps"`
	Output     Output          `json:"output"`
}

// ParameterStep is one page of the end-user input wizard.
// ID is an editor handle only and is never written to the textual format.
type ParameterStep struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Required    []string   `json:"required"`
	Properties  Properties `json:"properties"`
}

// ParameterProperty describes one field of a parameter step.
type ParameterProperty struct {
	Title       string         `json:"title"`
	Type        FieldType      `json:"type"`
	Description string         `json:"description,omitempty"`
	Default     any            `json:"default,omitempty"`
	Enum        []string       `json:"enum,omitempty"`
	EnumNames   []string       `json:"enumNames,omitempty"`
	Pattern     string         `json:"pattern,omitempty"`
	MinLength   *int           `json:"minLength,omitempty"`
	MaxLength   *int           `json:"maxLength,omitempty"`
	UniqueItems bool           `json:"uniqueItems,omitempty"`
	Items       *Items         `json:"items,omitempty"`
	UIField     string         `json:"ui:field,omitempty"`
	UIWidget    string         `json:"ui:widget,omitempty"`
	UIOptions   map[string]any `json:"ui:options,omitempty"`
	UIAutofocus bool           `json:"ui:autofocus,omitempty"`
}

// Items describes the element type of an array property.
type Items struct {
	Type string   `json:"type"`
	Enum []string `json:"enum,omitempty"`
}

// Step is one executable unit of the generated pipeline. Its ID is the
// externally visible step identifier.
type Step struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Action string `json:"action"`
	Input  Values `json:"input"`
	If     string `json:"if,omitempty"`
}

// Output lists the links shown after a template run.
type Output struct {
	Links []OutputLink `json:"links"`
}

// OutputLink points at a resource created by the template.
type OutputLink struct {
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	Icon      string `json:"icon,omitempty"`
	EntityRef string `json:"entityRef,omitempty"`
}

// NewID returns a fresh identifier for parameter steps.
func NewID() string {
	return uuid.NewString()
}

var stepIDUnsafe = regexp.MustCompile(`[:.]`)

// NewStepID derives a fresh step identifier from an action key,
// e.g. "fetch:template" becomes "fetch-template-1a2b3c4d".
func NewStepID(action string) string {
	prefix := stepIDUnsafe.ReplaceAllString(action, "-")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if prefix == "" {
		return "step-" + suffix
	}
	return prefix + "-" + suffix
}

// NewParameterStep creates an empty parameter step with a fresh ID.
func NewParameterStep(title string) ParameterStep {
	return ParameterStep{
		ID:         NewID(),
		Title:      title,
		Required:   []string{},
		Properties: Properties{},
	}
}

// NewStep creates an action step with a fresh ID and no input.
func NewStep(name, action string) Step {
	return Step{
		ID:     NewStepID(action),
		Name:   name,
		Action: action,
		Input:  Values{},
	}
}

// NewBlankTemplate returns the template used for "new".
func NewBlankTemplate() *Template {
	return &Template{
		APIVersion: DefaultAPIVersion,
		Kind:       TemplateKind,
		Metadata: Metadata{
			Name:        DefaultName,
			Title:       DefaultTitle,
			Description: BlankDescription,
			Tags:        []string{},
		},
		Spec: Spec{
			Owner:      DefaultOwner,
			Type:       DefaultType,
			Parameters: []ParameterStep{NewParameterStep(BlankParametersTitle)},
			Steps:      []Step{},
			Output:     Output{Links: []OutputLink{}},
		},
	}
}

// ParameterStepIndex returns the index of the parameter step with the given id, or -1.
func (s *Spec) ParameterStepIndex(id string) int {
	for i := range s.Parameters {
		if s.Parameters[i].ID == id {
			return i
		}
	}
	return -1
}

// StepIndex returns the index of the action step with the given id, or -1.
func (s *Spec) StepIndex(id string) int {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// IsRequired reports whether key is listed in the step's required list.
func (p *ParameterStep) IsRequired(key string) bool {
	for _, r := range p.Required {
		if r == key {
			return true
		}
	}
	return false
}
