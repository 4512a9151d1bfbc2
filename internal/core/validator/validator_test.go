// SPDX-License-Identifier: Apache-2.0

package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusari-oss/stencil/internal/core/catalog"
	"github.com/kusari-oss/stencil/internal/core/models"
	"github.com/kusari-oss/stencil/internal/core/validator"
)

func testCatalog() *catalog.Index {
	return catalog.NewIndex(
		catalog.ActionDefinition{
			Action:   "debug:log",
			Label:    "Debug Log",
			Category: catalog.CategoryDebug,
			Inputs: []catalog.ActionInput{
				{Name: "message", Type: "string", Required: true, Description: "Message to log"},
				{Name: "listWorkspace", Type: "boolean"},
			},
		},
	)
}

// validTemplate produces no errors or warnings.
func validTemplate() *models.Template {
	t := models.NewBlankTemplate()
	t.Metadata.Name = "demo"
	t.Metadata.Description = "Demo template"
	t.Spec.Owner = "group:default/platform"
	t.Spec.Parameters[0].Properties = models.Properties{
		{Key: "name", Schema: models.ParameterProperty{Title: "Name", Type: models.FieldString}},
	}
	t.Spec.Parameters[0].Required = []string{"name"}
	t.Spec.Steps = []models.Step{{
		ID:     "log",
		Name:   "Log",
		Action: "debug:log",
		Input:  models.Values{{Key: "message", Value: "${{ parameters.name }}"}},
	}}
	t.Spec.Output.Links = []models.OutputLink{{Title: "Repo", URL: "https://example.com"}}
	return t
}

func findAt(issues []validator.Issue, location string) []validator.Issue {
	var out []validator.Issue
	for _, i := range issues {
		if i.Location == location {
			out = append(out, i)
		}
	}
	return out
}

func TestValidTemplateIsClean(t *testing.T) {
	issues := validator.Validate(validTemplate(), testCatalog())
	assert.Empty(t, issues)
	assert.Equal(t, validator.Summary{}, validator.GetSummary(issues))
}

func TestRules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*models.Template)
		severity validator.Severity
		location string
		message  string
	}{
		{
			name:     "empty name",
			mutate:   func(t *models.Template) { t.Metadata.Name = "" },
			severity: validator.SeverityError,
			location: "metadata.name",
			message:  "Template name is required",
		},
		{
			name:     "name not a slug",
			mutate:   func(t *models.Template) { t.Metadata.Name = "My Template" },
			severity: validator.SeverityWarning,
			location: "metadata.name",
		},
		{
			name:     "empty title",
			mutate:   func(t *models.Template) { t.Metadata.Title = " " },
			severity: validator.SeverityError,
			location: "metadata.title",
		},
		{
			name:     "empty description",
			mutate:   func(t *models.Template) { t.Metadata.Description = "" },
			severity: validator.SeverityWarning,
			location: "metadata.description",
		},
		{
			name:     "empty owner",
			mutate:   func(t *models.Template) { t.Spec.Owner = "" },
			severity: validator.SeverityWarning,
			location: "spec.owner",
			message:  "Template owner is not set",
		},
		{
			name:     "owner not an entity ref",
			mutate:   func(t *models.Template) { t.Spec.Owner = "my-team" },
			severity: validator.SeverityWarning,
			location: "spec.owner",
			message:  "Owner should be a valid entity reference",
		},
		{
			name:     "malformed system",
			mutate:   func(t *models.Template) { t.Spec.System = "not a ref" },
			severity: validator.SeverityWarning,
			location: "spec.system",
		},
		{
			name:     "missing type",
			mutate:   func(t *models.Template) { t.Spec.Type = "" },
			severity: validator.SeverityInfo,
			location: "spec.type",
			message:  `Template type is not set (defaults to "service")`,
		},
		{
			name:     "untitled parameter step",
			mutate:   func(t *models.Template) { t.Spec.Parameters[0].Title = "" },
			severity: validator.SeverityWarning,
			location: "parameters[0]",
			message:  "Parameter step 1 has no title",
		},
		{
			name: "dangling required",
			mutate: func(t *models.Template) {
				t.Spec.Parameters[0].Required = append(t.Spec.Parameters[0].Required, "ghost")
			},
			severity: validator.SeverityError,
			location: "parameters[0].required",
			message:  `Required field "ghost" is not defined in properties`,
		},
		{
			name: "default does not match type",
			mutate: func(t *models.Template) {
				t.Spec.Parameters[0].Properties[0].Schema.Default = 42
			},
			severity: validator.SeverityWarning,
			location: "parameters[0].properties.name",
		},
		{
			name: "enum names mismatch",
			mutate: func(t *models.Template) {
				t.Spec.Parameters[0].Properties[0].Schema.Enum = []string{"a", "b"}
				t.Spec.Parameters[0].Properties[0].Schema.EnumNames = []string{"A"}
			},
			severity: validator.SeverityWarning,
			location: "parameters[0].properties.name",
			message:  `Field "name" has 2 enum values but 1 enum names`,
		},
		{
			name: "unknown ui field",
			mutate: func(t *models.Template) {
				t.Spec.Parameters[0].Properties[0].Schema.UIField = "FancyPicker"
			},
			severity: validator.SeverityWarning,
			location: "parameters[0].properties.name",
			message:  `Unknown ui:field "FancyPicker"`,
		},
		{
			name: "missing required input",
			mutate: func(t *models.Template) {
				t.Spec.Steps[0].Input = models.Values{{Key: "listWorkspace", Value: true}}
			},
			severity: validator.SeverityError,
			location: "steps[0].input",
			message:  `Step "Log" is missing required input "message"`,
		},
		{
			name: "undeclared input",
			mutate: func(t *models.Template) {
				t.Spec.Steps[0].Input = t.Spec.Steps[0].Input.Set("verbose", true)
			},
			severity: validator.SeverityWarning,
			location: "steps[0].input",
			message:  `Step "Log" has unknown input "verbose"`,
		},
		{
			name: "duplicate step id",
			mutate: func(t *models.Template) {
				t.Spec.Steps = append(t.Spec.Steps, t.Spec.Steps[0].Clone())
			},
			severity: validator.SeverityError,
			location: "steps[1].id",
			message:  `Duplicate step id "log"`,
		},
		{
			name:     "no output links",
			mutate:   func(t *models.Template) { t.Spec.Output.Links = nil },
			severity: validator.SeverityInfo,
			location: "spec.output",
		},
		{
			name: "link without target",
			mutate: func(t *models.Template) {
				t.Spec.Output.Links = append(t.Spec.Output.Links, models.OutputLink{Title: "Nowhere"})
			},
			severity: validator.SeverityWarning,
			location: "output.links[1]",
		},
		{
			name: "unused parameter",
			mutate: func(t *models.Template) {
				t.Spec.Parameters[0].Properties = t.Spec.Parameters[0].Properties.Set("extra", models.ParameterProperty{Title: "Extra", Type: models.FieldString})
			},
			severity: validator.SeverityInfo,
			location: "parameters",
			message:  `Parameter "extra" is defined but never used in steps`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := validTemplate()
			tt.mutate(tmpl)

			got := findAt(validator.Validate(tmpl, testCatalog()), tt.location)
			require.Len(t, got, 1, "issues at %s: %+v", tt.location, got)
			assert.Equal(t, tt.severity, got[0].Severity)
			if tt.message != "" {
				assert.Equal(t, tt.message, got[0].Message)
			}
		})
	}
}

func TestNoStepsReturnsEarly(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Spec.Steps = nil

	issues := validator.Validate(tmpl, testCatalog())
	errs := validator.Filter(issues, validator.SeverityError)
	require.Len(t, errs, 1)
	assert.Equal(t, "spec.steps", errs[0].Location)

	for _, i := range issues {
		assert.NotContains(t, i.Location, "steps[", "no per-step checks expected")
	}
}

func TestUnknownActionClassification(t *testing.T) {
	tests := []struct {
		action   string
		severity validator.Severity
	}{
		{"foo:bar", validator.SeverityWarning},
		{"foobar", validator.SeverityError},
		{"Debug:Log", validator.SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			tmpl := validTemplate()
			tmpl.Spec.Steps[0].Action = tt.action
			tmpl.Spec.Steps[0].Input = tmpl.Spec.Steps[0].Input.Set("undeclared", "x")

			got := findAt(validator.Validate(tmpl, testCatalog()), "steps[0]")
			require.Len(t, got, 1)
			assert.Equal(t, tt.severity, got[0].Severity)

			// no schema to compare inputs against
			assert.Empty(t, findAt(validator.Validate(tmpl, testCatalog()), "steps[0].input"))
		})
	}
}

func TestUndefinedParameterReference(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Spec.Steps[0].Input = models.Values{
		{Key: "message", Value: "hi"},
		{Key: "url", Value: "${{ parameters.missing }}"},
		{Key: "nested", Value: []any{models.Values{{Key: "again", Value: "${{parameters.missing}}"}}}},
	}

	got := validator.Filter(validator.Validate(tmpl, testCatalog()), validator.SeverityError)
	require.Len(t, got, 1)
	assert.Equal(t, "steps[0].input", got[0].Location)
	assert.Equal(t, `Step "Log" references undefined parameter "missing"`, got[0].Message)
}

func TestUnknownInputsInDocumentOrder(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Spec.Steps[0].Input = models.Values{
		{Key: "message", Value: "hi"},
		{Key: "zeta", Value: 1},
		{Key: "listWorkspace", Value: true},
		{Key: "alpha", Value: "x"},
	}

	got := findAt(validator.Validate(tmpl, testCatalog()), "steps[0].input")
	require.Len(t, got, 2)
	assert.Equal(t, `Step "Log" has unknown input "zeta"`, got[0].Message)
	assert.Equal(t, `Step "Log" has unknown input "alpha"`, got[1].Message)
}

func TestParameterUsedInConditionIsNotUnused(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Spec.Parameters[0].Properties = tmpl.Spec.Parameters[0].Properties.Set("enabled", models.ParameterProperty{Title: "Enabled", Type: models.FieldBoolean})
	tmpl.Spec.Steps[0].If = "${{ parameters.enabled }}"

	assert.Empty(t, findAt(validator.Validate(tmpl, testCatalog()), "parameters"))
}

func TestZeroParameterStepsDoesNotShortCircuit(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Spec.Parameters = nil
	tmpl.Metadata.Title = ""

	issues := validator.Validate(tmpl, testCatalog())
	require.NotEmpty(t, findAt(issues, "spec.parameters"))
	require.NotEmpty(t, findAt(issues, "metadata.title"))
	// the step still references name, which no longer exists
	assert.NotEmpty(t, findAt(issues, "steps[0].input"))
}

func TestSectionOrder(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Metadata.Name = ""
	tmpl.Spec.Type = ""
	tmpl.Spec.Parameters[0].Title = ""
	tmpl.Spec.Steps[0].Action = "nope"
	tmpl.Spec.Output.Links = nil

	var locations []string
	for _, i := range validator.Validate(tmpl, testCatalog()) {
		locations = append(locations, i.Location)
	}
	assert.Equal(t, []string{"metadata.name", "spec.type", "parameters[0]", "steps[0]", "spec.output"}, locations)
}

func TestNilLookup(t *testing.T) {
	got := findAt(validator.Validate(validTemplate(), nil), "steps[0]")
	require.Len(t, got, 1)
	assert.Equal(t, validator.SeverityWarning, got[0].Severity)
}

func TestGetSummary(t *testing.T) {
	issues := []validator.Issue{
		{Severity: validator.SeverityError},
		{Severity: validator.SeverityWarning},
		{Severity: validator.SeverityWarning},
		{Severity: validator.SeverityInfo},
	}
	assert.Equal(t, validator.Summary{Errors: 1, Warnings: 2, Infos: 1, Total: 4}, validator.GetSummary(issues))
	assert.True(t, validator.HasErrors(issues))
	assert.False(t, validator.HasErrors(issues[1:]))
}

func TestValidateValues(t *testing.T) {
	step := models.NewParameterStep("Info")
	step.Properties = step.Properties.Set("name", models.ParameterProperty{Title: "Name", Type: models.FieldString})
	step.Properties = step.Properties.Set("replicas", models.ParameterProperty{Title: "Replicas", Type: models.FieldNumber})
	step.Required = []string{"name"}

	assert.NoError(t, validator.ValidateValues(&step, map[string]any{"name": "svc", "replicas": 3}))
	assert.Error(t, validator.ValidateValues(&step, map[string]any{"replicas": 3}))
	assert.Error(t, validator.ValidateValues(&step, map[string]any{"name": "svc", "replicas": "three"}))
}
