// SPDX-License-Identifier: Apache-2.0

// Package validator checks a template for structural and semantic problems.
package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kusari-oss/stencil/internal/core/catalog"
	"github.com/kusari-oss/stencil/internal/core/models"
	"github.com/kusari-oss/stencil/internal/defaults"
)

var (
	namePattern      = regexp.MustCompile(`^[a-z0-9-]+$`)
	entityRefPattern = regexp.MustCompile(`(?i)^[a-z]+:[a-z0-9-]+(/[a-z0-9-]+)?$`)
	paramRefPattern  = regexp.MustCompile(`\$\{\{\s*parameters\.(\w+)\s*\}\}`)
	paramUsePattern  = regexp.MustCompile(`\bparameters\.(\w+)`)
)

// Validate returns the issues found in t, in section order: metadata, spec,
// parameters, steps, output, then cross references. A nil lookup treats
// every action as unknown.
func Validate(t *models.Template, lookup catalog.Lookup) []Issue {
	v := &run{lookup: lookup}
	v.metadata(&t.Metadata)
	v.spec(&t.Spec)
	v.parameters(t.Spec.Parameters)
	v.steps(t.Spec.Steps)
	v.output(t.Spec.Output)
	v.references(&t.Spec)
	return v.issues
}

type run struct {
	lookup catalog.Lookup
	issues []Issue
}

func (v *run) add(sev Severity, location, msg, suggestion string) {
	v.issues = append(v.issues, Issue{Severity: sev, Message: msg, Location: location, Suggestion: suggestion})
}

func (v *run) metadata(m *models.Metadata) {
	if strings.TrimSpace(m.Name) == "" {
		v.add(SeverityError, "metadata.name", "Template name is required", "Add a unique name using lowercase letters, numbers, and hyphens")
	} else if !namePattern.MatchString(m.Name) {
		v.add(SeverityWarning, "metadata.name", "Template name should only contain lowercase letters, numbers, and hyphens", "Example: my-template-name")
	}

	if strings.TrimSpace(m.Title) == "" {
		v.add(SeverityError, "metadata.title", "Template title is required", "Add a human-readable title for the template")
	}
	if strings.TrimSpace(m.Description) == "" {
		v.add(SeverityWarning, "metadata.description", "Template description is empty", "Add a description to help users understand what this template does")
	}
}

func (v *run) spec(s *models.Spec) {
	switch {
	case strings.TrimSpace(s.Owner) == "":
		v.add(SeverityWarning, "spec.owner", "Template owner is not set", "Set an owner like group:default/my-team")
	case !entityRefPattern.MatchString(s.Owner):
		v.add(SeverityWarning, "spec.owner", "Owner should be a valid entity reference", "Format: group:namespace/name or user:name")
	}

	if s.System != "" && !entityRefPattern.MatchString(s.System) {
		v.add(SeverityWarning, "spec.system", "System should be a valid entity reference", "Format: system:namespace/name")
	}

	if strings.TrimSpace(s.Type) == "" {
		v.add(SeverityInfo, "spec.type", fmt.Sprintf("Template type is not set (defaults to %q)", models.DefaultType), "")
	}
}

func (v *run) parameters(params []models.ParameterStep) {
	if len(params) == 0 {
		v.add(SeverityWarning, "spec.parameters", "Template has no parameter steps", "Add at least one parameter step to collect user input")
		return
	}

	for i := range params {
		step := &params[i]
		loc := fmt.Sprintf("parameters[%d]", i)

		if strings.TrimSpace(step.Title) == "" {
			v.add(SeverityWarning, loc, fmt.Sprintf("Parameter step %d has no title", i+1), "")
		}
		if len(step.Properties) == 0 {
			v.add(SeverityWarning, loc, fmt.Sprintf("Parameter step %q has no fields", step.Title), "Add fields to collect user input")
		}

		for _, req := range step.Required {
			if !step.Properties.Has(req) {
				v.add(SeverityError, loc+".required", fmt.Sprintf("Required field %q is not defined in properties", req), "")
			}
		}

		if err := CompileStep(step); err != nil {
			v.add(SeverityError, loc, fmt.Sprintf("Parameter step %q is not a valid JSON schema: %v", step.Title, err), "")
			continue
		}

		for _, p := range step.Properties {
			v.property(loc+".properties."+p.Key, p)
		}
	}
}

func (v *run) property(loc string, p models.Property) {
	s := p.Schema
	if reason := checkDefault(s); reason != "" {
		v.add(SeverityWarning, loc, fmt.Sprintf("Default value of %q does not match its schema: %s", p.Key, reason), "")
	}
	if len(s.EnumNames) > 0 && len(s.EnumNames) != len(s.Enum) {
		v.add(SeverityWarning, loc, fmt.Sprintf("Field %q has %d enum values but %d enum names", p.Key, len(s.Enum), len(s.EnumNames)), "")
	}
	if s.UIField != "" && !defaults.IsUIField(s.UIField) {
		v.add(SeverityWarning, loc, fmt.Sprintf("Unknown ui:field %q", s.UIField), "")
	}
	if s.UIWidget != "" && !defaults.IsUIWidget(s.UIWidget) {
		v.add(SeverityWarning, loc, fmt.Sprintf("Unknown ui:widget %q", s.UIWidget), "")
	}
}

func (v *run) steps(steps []models.Step) {
	if len(steps) == 0 {
		v.add(SeverityError, "spec.steps", "Template has no steps", "Add at least one action step")
		return
	}

	seen := make(map[string]bool, len(steps))
	for i := range steps {
		step := &steps[i]
		loc := fmt.Sprintf("steps[%d]", i)

		if step.ID != "" {
			if seen[step.ID] {
				v.add(SeverityError, loc+".id", fmt.Sprintf("Duplicate step id %q", step.ID), "Step ids must be unique")
			}
			seen[step.ID] = true
		}

		var def catalog.ActionDefinition
		var known bool
		if v.lookup != nil {
			def, known = v.lookup.Lookup(step.Action)
		}
		if !known {
			if strings.Contains(step.Action, ":") {
				v.add(SeverityWarning, loc, fmt.Sprintf("Unknown action %q", step.Action), "This may be a custom action. Verify it exists in your Backstage instance.")
			} else {
				v.add(SeverityError, loc, fmt.Sprintf("Invalid action format %q", step.Action), "Actions should be in format namespace:action")
			}
			continue
		}

		for _, in := range def.Inputs {
			if !in.Required {
				continue
			}
			if val, ok := step.Input.Get(in.Name); !ok || val == nil || val == "" {
				v.add(SeverityError, loc+".input", fmt.Sprintf("Step %q is missing required input %q", step.Name, in.Name), in.Description)
			}
		}

		for _, key := range step.Input.Keys() {
			if _, declared := def.Input(key); declared {
				continue
			}
			v.add(SeverityWarning, loc+".input", fmt.Sprintf("Step %q has unknown input %q", step.Name, key), "This input may be ignored by the action")
		}
	}
}

func (v *run) output(out models.Output) {
	if len(out.Links) == 0 {
		v.add(SeverityInfo, "spec.output", "No output links defined", "Add links to help users navigate to created resources")
		return
	}
	for i, link := range out.Links {
		if strings.TrimSpace(link.URL) == "" && strings.TrimSpace(link.EntityRef) == "" {
			v.add(SeverityWarning, fmt.Sprintf("output.links[%d]", i), fmt.Sprintf("Output link %q has no URL or entity reference", link.Title), "")
		}
	}
}

func (v *run) references(s *models.Spec) {
	defined := make(map[string]bool)
	var order []string
	for i := range s.Parameters {
		for _, key := range s.Parameters[i].Properties.Keys() {
			if !defined[key] {
				order = append(order, key)
			}
			defined[key] = true
		}
	}

	used := make(map[string]bool)
	for i := range s.Steps {
		step := &s.Steps[i]
		reported := make(map[string]bool)
		walkStrings(step.Input, func(str string) {
			for _, m := range paramRefPattern.FindAllStringSubmatch(str, -1) {
				name := m[1]
				if defined[name] || reported[name] {
					continue
				}
				reported[name] = true
				v.add(SeverityError, fmt.Sprintf("steps[%d].input", i), fmt.Sprintf("Step %q references undefined parameter %q", step.Name, name), "")
			}
		})

		walkStrings(step.Input, func(str string) { markUsed(used, str) })
		markUsed(used, step.If)
	}

	for _, key := range order {
		if !used[key] {
			v.add(SeverityInfo, "parameters", fmt.Sprintf("Parameter %q is defined but never used in steps", key), "")
		}
	}
}

func markUsed(used map[string]bool, s string) {
	for _, m := range paramUsePattern.FindAllStringSubmatch(s, -1) {
		used[m[1]] = true
	}
}

// walkStrings visits every string in a JSON-like value. Values are visited
// in document order and plain map keys in sorted order.
func walkStrings(v any, fn func(string)) {
	switch val := v.(type) {
	case string:
		fn(val)
	case models.Values:
		for _, f := range val {
			walkStrings(f.Value, fn)
		}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkStrings(val[k], fn)
		}
	case []any:
		for _, item := range val {
			walkStrings(item, fn)
		}
	case []string:
		for _, item := range val {
			fn(item)
		}
	}
}
