// SPDX-License-Identifier: Apache-2.0

package catalog

// Category groups actions for display.
type Category string

const (
	CategoryFetch     Category = "fetch"
	CategoryPublish   Category = "publish"
	CategoryCatalog   Category = "catalog"
	CategoryGitHub    Category = "github"
	CategoryGitLab    Category = "gitlab"
	CategoryDebug     Category = "debug"
	CategoryFS        Category = "fs"
	CategoryCustom    Category = "custom"
	CategoryUtilities Category = "utilities"
)

// Categories lists the known categories in display order.
func Categories() []Category {
	return []Category{
		CategoryFetch, CategoryPublish, CategoryCatalog, CategoryGitHub, CategoryGitLab,
		CategoryDebug, CategoryFS, CategoryUtilities, CategoryCustom,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ActionInput declares one input of an action.
type ActionInput struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Label       string `json:"label" yaml:"label" mapstructure:"label"`
	Type        string `json:"type" yaml:"type" mapstructure:"type"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
}

// ActionDefinition is a catalog entry keyed by Action.
type ActionDefinition struct {
	Action      string        `json:"action" yaml:"action" mapstructure:"action"`
	Label       string        `json:"label" yaml:"label" mapstructure:"label"`
	Description string        `json:"description" yaml:"description" mapstructure:"description"`
	Category    Category      `json:"category" yaml:"category" mapstructure:"category"`
	Inputs      []ActionInput `json:"inputs" yaml:"inputs" mapstructure:"inputs"`
}

// Input returns the declared input with the given name.
func (d ActionDefinition) Input(name string) (ActionInput, bool) {
	for _, in := range d.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return ActionInput{}, false
}

// RequiredInputs returns the names of required inputs in declaration order.
func (d ActionDefinition) RequiredInputs() []string {
	var names []string
	for _, in := range d.Inputs {
		if in.Required {
			names = append(names, in.Name)
		}
	}
	return names
}

// Normalize fills the documented defaults: label falls back to the action
// key, unknown categories become custom and inputs are never nil.
func (d ActionDefinition) Normalize() ActionDefinition {
	if d.Label == "" {
		d.Label = d.Action
	}
	if !d.Category.Valid() {
		d.Category = CategoryCustom
	}
	if d.Inputs == nil {
		d.Inputs = []ActionInput{}
	}
	return d
}
