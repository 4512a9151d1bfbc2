// SPDX-License-Identifier: Apache-2.0

package parameters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusari-oss/stencil/internal/core/models"
	"github.com/kusari-oss/stencil/internal/core/parameters"
)

func TestSubstituteString(t *testing.T) {
	data := map[string]any{
		"name":     "svc",
		"replicas": 3,
		"public":   true,
		"tags":     []any{"a", "b"},
	}
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"whole reference keeps type", "${{ parameters.replicas }}", 3},
		{"boolean", "${{parameters.public}}", true},
		{"list", "${{ parameters.tags }}", []any{"a", "b"}},
		{"embedded", "repo/${{ parameters.name }}-${{ parameters.replicas }}", "repo/svc-3"},
		{"embedded list is json", "tags=${{ parameters.tags }}", `tags=["a","b"]`},
		{"no reference", "plain", "plain"},
		{"missing left in place", "${{ parameters.nope }}", "${{ parameters.nope }}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parameters.NewParameterProcessor()
			assert.Equal(t, tt.want, p.SubstituteString(tt.input, data))
		})
	}
}

func TestProcessMapReportsMissing(t *testing.T) {
	p := parameters.NewParameterProcessor()
	input := models.Values{
		{Key: "url", Value: "github.com?repo=${{ parameters.repo }}"},
		{Key: "nested", Value: models.Values{{Key: "list", Value: []any{"${{ parameters.owner }}", 1}}}},
		{Key: "n", Value: 2},
	}

	out, err := p.ProcessMap(input, map[string]any{"repo": "web"})
	var missing *parameters.MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"owner"}, missing.Names)
	assert.Equal(t, []string{"url", "nested", "n"}, out.Keys())
	url, _ := out.Get("url")
	assert.Equal(t, "github.com?repo=web", url)
	n, _ := out.Get("n")
	assert.Equal(t, 2, n)

	out, err = p.ProcessMap(input, map[string]any{"repo": "web", "owner": "me"})
	require.NoError(t, err)
	nested, _ := out.Get("nested")
	assert.Equal(t, models.Values{{Key: "list", Value: []any{"me", 1}}}, nested)
}

func TestExtractReferences(t *testing.T) {
	got := parameters.ExtractReferences("${{ parameters.b }} ${{ parameters.a }} ${{parameters.b}}")
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Empty(t, parameters.ExtractReferences("parameters.a"))
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		typ     models.FieldType
		raw     string
		want    any
		wantErr bool
	}{
		{models.FieldString, "42", "42", false},
		{models.FieldNumber, "42", 42.0, false},
		{models.FieldNumber, "x", nil, true},
		{models.FieldBoolean, "true", true, false},
		{models.FieldBoolean, "maybe", nil, true},
		{models.FieldArray, "a, b,", []any{"a", "b"}, false},
		{models.FieldArray, `["a",1]`, []any{"a", 1.0}, false},
		{models.FieldObject, `{"k":"v"}`, map[string]any{"k": "v"}, false},
		{models.FieldObject, `nope`, nil, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.raw, func(t *testing.T) {
			got, err := parameters.Coerce(tt.raw, models.ParameterProperty{Type: tt.typ})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultsAndAssignments(t *testing.T) {
	step := models.NewParameterStep("Info")
	step.Properties = step.Properties.
		Set("name", models.ParameterProperty{Type: models.FieldString, Default: "svc"}).
		Set("replicas", models.ParameterProperty{Type: models.FieldNumber, Default: 1}).
		Set("public", models.ParameterProperty{Type: models.FieldBoolean})
	steps := []models.ParameterStep{step}

	defaults := parameters.Defaults(steps)
	assert.Equal(t, map[string]any{"name": "svc", "replicas": 1}, defaults)

	set, err := parameters.ParseAssignments([]string{"replicas=3", "public=true", "extra=x"}, steps)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"replicas": 3.0, "public": true, "extra": "x"}, set)

	merged := parameters.MergeWithDefaults(set, defaults)
	assert.Equal(t, "svc", merged["name"])
	assert.Equal(t, 3.0, merged["replicas"])

	_, err = parameters.ParseAssignments([]string{"novalue"}, steps)
	assert.Error(t, err)
	_, err = parameters.ParseAssignments([]string{"replicas=many"}, steps)
	assert.Error(t, err)
}
