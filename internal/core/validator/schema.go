// SPDX-License-Identifier: Apache-2.0

package validator

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kusari-oss/stencil/internal/core/models"
)

// StepSchema renders a parameter step as the JSON schema of the object it
// collects. ui:* keys are not schema keywords and are left out.
func StepSchema(step *models.ParameterStep) map[string]any {
	props := make(map[string]any, len(step.Properties))
	for _, p := range step.Properties {
		props[p.Key] = PropertySchema(p.Schema)
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(step.Required) > 0 {
		required := make([]any, len(step.Required))
		for i, r := range step.Required {
			required[i] = r
		}
		schema["required"] = required
	}
	if step.Title != "" {
		schema["title"] = step.Title
	}
	return schema
}

// PropertySchema renders one property as a JSON schema.
func PropertySchema(p models.ParameterProperty) map[string]any {
	s := map[string]any{}
	if p.Type != "" {
		s["type"] = string(p.Type)
	}
	if p.Title != "" {
		s["title"] = p.Title
	}
	if p.Description != "" {
		s["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		s["enum"] = stringsToAny(p.Enum)
	}
	if p.Pattern != "" {
		s["pattern"] = p.Pattern
	}
	if p.MinLength != nil {
		s["minLength"] = *p.MinLength
	}
	if p.MaxLength != nil {
		s["maxLength"] = *p.MaxLength
	}
	if p.UniqueItems {
		s["uniqueItems"] = true
	}
	if p.Items != nil {
		items := map[string]any{}
		if p.Items.Type != "" {
			items["type"] = p.Items.Type
		}
		if len(p.Items.Enum) > 0 {
			items["enum"] = stringsToAny(p.Items.Enum)
		}
		s["items"] = items
	}
	return s
}

// CompileStep checks that the step is a well-formed JSON schema.
func CompileStep(step *models.ParameterStep) error {
	_, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(StepSchema(step)))
	return err
}

// ValidateValues checks wizard values against a parameter step.
func ValidateValues(step *models.ParameterStep, values map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(StepSchema(step)),
		gojsonschema.NewGoLoader(values),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("parameter validation failed: %s", joinResultErrors(result.Errors()))
	}
	return nil
}

// checkDefault validates a property default against the property's own
// schema. It returns a description of the mismatch, or "".
func checkDefault(p models.ParameterProperty) string {
	if p.Default == nil {
		return ""
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(PropertySchema(p)),
		gojsonschema.NewGoLoader(p.Default),
	)
	if err != nil {
		// schema problems are reported by CompileStep
		return ""
	}
	if result.Valid() {
		return ""
	}
	return joinResultErrors(result.Errors())
}

func joinResultErrors(errs []gojsonschema.ResultError) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.String()
	}
	return strings.Join(msgs, "; ")
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
