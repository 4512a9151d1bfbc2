// SPDX-License-Identifier: Apache-2.0

package models_test

import (
	"regexp"
	"testing"

	"github.com/kusari-oss/stencil/internal/core/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStepID(t *testing.T) {
	tests := []struct {
		name   string
		action string
		prefix string
	}{
		{name: "colon separated", action: "fetch:template", prefix: "fetch-template-"},
		{name: "dots and colons", action: "roadiehq:utils:fs.parse", prefix: "roadiehq-utils-fs-parse-"},
		{name: "empty action", action: "", prefix: "step-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := models.NewStepID(tt.action)
			assert.Regexp(t, "^"+regexp.QuoteMeta(tt.prefix)+"[0-9a-f]{8}$", id)
		})
	}

	assert.NotEqual(t, models.NewStepID("debug:log"), models.NewStepID("debug:log"))
}

func TestNewBlankTemplate(t *testing.T) {
	tmpl := models.NewBlankTemplate()

	assert.Equal(t, models.DefaultAPIVersion, tmpl.APIVersion)
	assert.Equal(t, models.TemplateKind, tmpl.Kind)
	assert.Equal(t, "new-template", tmpl.Metadata.Name)
	assert.Equal(t, "my-team", tmpl.Spec.Owner)
	require.Len(t, tmpl.Spec.Parameters, 1)
	assert.NotEmpty(t, tmpl.Spec.Parameters[0].ID)
	assert.Empty(t, tmpl.Spec.Steps)
	assert.NotNil(t, tmpl.Spec.Output.Links)
}

func TestPropertiesOrdering(t *testing.T) {
	var props models.Properties
	props = props.Set("name", models.ParameterProperty{Title: "Name", Type: models.FieldString})
	props = props.Set("owner", models.ParameterProperty{Title: "Owner", Type: models.FieldString})
	props = props.Set("size", models.ParameterProperty{Title: "Size", Type: models.FieldNumber})

	assert.Equal(t, []string{"name", "owner", "size"}, props.Keys())

	props = props.Rename("owner", "team")
	assert.Equal(t, []string{"name", "team", "size"}, props.Keys())

	// renaming onto an existing key is refused
	props = props.Rename("team", "name")
	assert.Equal(t, []string{"name", "team", "size"}, props.Keys())

	props = props.Set("team", models.ParameterProperty{Title: "Team"})
	got, ok := props.Get("team")
	require.True(t, ok)
	assert.Equal(t, "Team", got.Title)
	assert.Equal(t, 1, props.Index("team"))

	props = props.Delete("name")
	assert.Equal(t, []string{"team", "size"}, props.Keys())
	assert.False(t, props.Has("name"))
	assert.Equal(t, props, props.Delete("missing"))
}

func TestTemplateCloneIsDeep(t *testing.T) {
	minLen := 3
	orig := models.NewBlankTemplate()
	orig.Metadata.Tags = []string{"go"}
	orig.Metadata.Annotations = map[string]string{"a": "b"}
	orig.Spec.Parameters[0].Required = []string{"name"}
	orig.Spec.Parameters[0].Properties = models.Properties{}.Set("name", models.ParameterProperty{
		Title:     "Name",
		Type:      models.FieldString,
		MinLength: &minLen,
		UIOptions: map[string]any{"allowedKinds": []any{"Group"}},
	})
	orig.Spec.Steps = []models.Step{{
		ID:     "fetch",
		Action: "fetch:template",
		Input:  models.Values{{Key: "values", Value: models.Values{{Key: "name", Value: "x"}}}},
	}}
	orig.Spec.Output.Links = []models.OutputLink{{Title: "Repo"}}

	cp := orig.Clone()
	require.Equal(t, orig, cp)

	cp.Metadata.Tags[0] = "rust"
	cp.Metadata.Annotations["a"] = "c"
	cp.Spec.Parameters[0].Required[0] = "other"
	*cp.Spec.Parameters[0].Properties[0].Schema.MinLength = 9
	cp.Spec.Parameters[0].Properties[0].Schema.UIOptions["allowedKinds"].([]any)[0] = "User"
	cp.Spec.Steps[0].Input[0].Value.(models.Values)[0].Value = "y"
	cp.Spec.Output.Links[0].Title = "Changed"

	assert.Equal(t, "go", orig.Metadata.Tags[0])
	assert.Equal(t, "b", orig.Metadata.Annotations["a"])
	assert.Equal(t, "name", orig.Spec.Parameters[0].Required[0])
	assert.Equal(t, 3, *orig.Spec.Parameters[0].Properties[0].Schema.MinLength)
	assert.Equal(t, "Group", orig.Spec.Parameters[0].Properties[0].Schema.UIOptions["allowedKinds"].([]any)[0])
	assert.Equal(t, "x", orig.Spec.Steps[0].Input[0].Value.(models.Values)[0].Value)
	assert.Equal(t, "Repo", orig.Spec.Output.Links[0].Title)
}

func TestSpecIndexes(t *testing.T) {
	spec := models.Spec{
		Parameters: []models.ParameterStep{{ID: "p1"}, {ID: "p2"}},
		Steps:      []models.Step{{ID: "s1"}},
	}
	assert.Equal(t, 1, spec.ParameterStepIndex("p2"))
	assert.Equal(t, -1, spec.ParameterStepIndex("nope"))
	assert.Equal(t, 0, spec.StepIndex("s1"))
	assert.Equal(t, -1, spec.StepIndex("s2"))

	ps := models.ParameterStep{Required: []string{"name"}}
	assert.True(t, ps.IsRequired("name"))
	assert.False(t, ps.IsRequired("owner"))
}
