// SPDX-License-Identifier: Apache-2.0

package transcode_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusari-oss/stencil/internal/core/models"
	"github.com/kusari-oss/stencil/internal/core/transcode"
)

func demoTemplate() *models.Template {
	t := models.NewBlankTemplate()
	t.Metadata.Name = "demo"
	t.Metadata.Tags = []string{"go", "service"}
	t.Spec.Parameters[0].Required = []string{"x"}
	t.Spec.Parameters[0].Properties = models.Properties{}.Set("x", models.ParameterProperty{
		Title: "X",
		Type:  models.FieldString,
	})
	t.Spec.Steps = []models.Step{{
		ID:     "s1",
		Name:   "Step",
		Action: "debug:log",
		Input:  models.Values{{Key: "message", Value: "hi"}},
	}}
	t.Spec.Output.Links = []models.OutputLink{{Title: "Repository", URL: "https://example.com"}}
	return t
}

func TestRoundTrip(t *testing.T) {
	orig := demoTemplate()

	data, err := transcode.Encode(orig)
	require.NoError(t, err)

	got, err := transcode.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, orig.APIVersion, got.APIVersion)
	assert.Equal(t, orig.Metadata, got.Metadata)
	assert.Equal(t, orig.Spec.Owner, got.Spec.Owner)
	assert.Equal(t, orig.Spec.Type, got.Spec.Type)
	assert.Equal(t, orig.Spec.Steps, got.Spec.Steps)
	assert.Equal(t, orig.Spec.Output, got.Spec.Output)

	require.Len(t, got.Spec.Parameters, 1)
	assert.Equal(t, orig.Spec.Parameters[0].Properties, got.Spec.Parameters[0].Properties)
	assert.Equal(t, []string{"x"}, got.Spec.Parameters[0].Required)
	assert.NotEqual(t, orig.Spec.Parameters[0].ID, got.Spec.Parameters[0].ID)
}

func TestRoundTripRichProperty(t *testing.T) {
	minLen, maxLen := 2, 40
	orig := demoTemplate()
	orig.Metadata.Annotations = map[string]string{"backstage.io/techdocs-ref": "dir:."}
	orig.Spec.System = "system:default/platform"
	orig.Spec.Parameters[0].Properties = orig.Spec.Parameters[0].Properties.Set("tier", models.ParameterProperty{
		Title:       "Tier",
		Type:        models.FieldString,
		Description: "Service tier",
		Default:     "gold",
		Enum:        []string{"gold", "silver"},
		EnumNames:   []string{"Gold", "Silver"},
		Pattern:     "^[a-z]+$",
		MinLength:   &minLen,
		MaxLength:   &maxLen,
		UIWidget:    "select",
		UIOptions:   map[string]any{"rows": 3},
		UIAutofocus: true,
	})
	orig.Spec.Parameters[0].Properties = orig.Spec.Parameters[0].Properties.Set("tags", models.ParameterProperty{
		Title:       "Tags",
		Type:        models.FieldArray,
		UniqueItems: true,
		Items:       &models.Items{Type: "string", Enum: []string{"a", "b"}},
	})
	orig.Spec.Steps[0].If = "${{ parameters.x }}"

	data, err := transcode.Encode(orig)
	require.NoError(t, err)
	got, err := transcode.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, orig.Metadata.Annotations, got.Metadata.Annotations)
	assert.Equal(t, orig.Spec.System, got.Spec.System)
	assert.Equal(t, orig.Spec.Parameters[0].Properties, got.Spec.Parameters[0].Properties)
	assert.Equal(t, []string{"x", "tier", "tags"}, got.Spec.Parameters[0].Properties.Keys())
	assert.Equal(t, orig.Spec.Steps[0].If, got.Spec.Steps[0].If)
}

func TestEncodeScalarFidelity(t *testing.T) {
	tmpl := demoTemplate()
	tmpl.Spec.Steps[0].Input = models.Values{
		{Key: "count", Value: 3},
		{Key: "enabled", Value: true},
		{Key: "ratio", Value: 0.5},
		{Key: "version", Value: "1.0"},
		{Key: "flag", Value: "true"},
		{Key: "nested", Value: models.Values{{Key: "list", Value: []any{1, "two", false}}}},
	}

	data, err := transcode.Encode(tmpl)
	require.NoError(t, err)
	got, err := transcode.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, tmpl.Spec.Steps[0].Input, got.Spec.Steps[0].Input)
}

func TestEncodeOmitsEmptyOptionalFields(t *testing.T) {
	tmpl := models.NewBlankTemplate()
	tmpl.Spec.Steps = []models.Step{{ID: "log", Name: "Log", Action: "debug:log", Input: models.Values{}}}
	tmpl.Spec.Parameters[0].Properties = models.Properties{}.Set("name", models.ParameterProperty{
		Title:   "Name",
		Type:    models.FieldString,
		Default: "",
	})

	data, err := transcode.Encode(tmpl)
	require.NoError(t, err)
	text := string(data)

	for _, absent := range []string{"tags:", "annotations:", "system:", "required:", "default:", "input:", "links:", "id: " + tmpl.Spec.Parameters[0].ID} {
		assert.NotContains(t, text, absent)
	}
	assert.Contains(t, text, "output: {}")
}

func TestEncodeKeyOrderAndIndent(t *testing.T) {
	data, err := transcode.Encode(demoTemplate())
	require.NoError(t, err)
	text := string(data)

	order := []string{"apiVersion:", "kind: Template", "metadata:", "  name: demo", "  title:", "  description:", "  tags:", "spec:", "  owner:", "  type:", "  parameters:", "  steps:", "  output:"}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		require.GreaterOrEqual(t, idx, 0, "missing %q", key)
		assert.Greater(t, idx, last, "%q out of order", key)
		last = idx
	}
}

func TestStepInputKeepsDocumentOrder(t *testing.T) {
	src := `
spec:
  steps:
    - id: fetch
      action: fetch:template
      input:
        url: ./skeleton
        zeta: 1
        values:
          name: web
          component_id: c
        alpha: x
`
	got, err := transcode.Decode([]byte(src))
	require.NoError(t, err)

	in := got.Spec.Steps[0].Input
	assert.Equal(t, []string{"url", "zeta", "values", "alpha"}, in.Keys())
	values, ok := in.Get("values")
	require.True(t, ok)
	assert.Equal(t, models.Values{{Key: "name", Value: "web"}, {Key: "component_id", Value: "c"}}, values)

	data, err := transcode.Encode(got)
	require.NoError(t, err)
	text := string(data)
	last := -1
	for _, key := range []string{"url: ./skeleton", "zeta: 1", "values:", "name: web", "component_id: c", "alpha: x"} {
		idx := strings.Index(text, key)
		require.GreaterOrEqual(t, idx, 0, "missing %q", key)
		assert.Greater(t, idx, last, "%q out of order", key)
		last = idx
	}

	again, err := transcode.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, again.Spec.Steps[0].Input)
}

func TestDecodeDropsRepeatedTags(t *testing.T) {
	got, err := transcode.Decode([]byte("metadata:\n  tags: [go, web, go, api, web]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "web", "api"}, got.Metadata.Tags)
}

func TestEncodeQuotesYAML11Booleans(t *testing.T) {
	tmpl := demoTemplate()
	tmpl.Metadata.Tags = []string{"yes", "on", "plain"}
	tmpl.Spec.Steps[0].Input = models.Values{{Key: "message", Value: "no"}, {Key: "mode", Value: "Off"}}

	data, err := transcode.Encode(tmpl)
	require.NoError(t, err)
	text := string(data)

	tests := []struct {
		want    string
		notWant string
	}{
		{want: `- "yes"`, notWant: "- yes\n"},
		{want: `- "on"`, notWant: "- on\n"},
		{want: "- plain\n"},
		{want: `message: "no"`, notWant: "message: no\n"},
		{want: `mode: "Off"`, notWant: "mode: Off\n"},
	}
	for _, tt := range tests {
		assert.Contains(t, text, tt.want)
		if tt.notWant != "" {
			assert.NotContains(t, text, tt.notWant)
		}
	}

	got, err := transcode.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, tmpl.Metadata.Tags, got.Metadata.Tags)
	assert.Equal(t, tmpl.Spec.Steps[0].Input, got.Spec.Steps[0].Input)
}

func TestEncodeIsDeterministic(t *testing.T) {
	tmpl := demoTemplate()
	tmpl.Metadata.Annotations = map[string]string{"z": "1", "a": "2", "m": "3"}
	tmpl.Spec.Steps[0].Input = models.Values{{Key: "b", Value: 1}, {Key: "a", Value: 2}, {Key: "c", Value: 3}}

	first, err := transcode.Encode(tmpl)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := transcode.Encode(tmpl)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDecodeDefaults(t *testing.T) {
	src := `
spec:
  parameters:
    properties:
      repoUrl: {}
  steps:
    - action: fetch:template
  output:
    links:
      - url: https://example.com
`
	got, err := transcode.Decode([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, models.DefaultAPIVersion, got.APIVersion)
	assert.Equal(t, "Template", got.Kind)
	assert.Equal(t, "new-template", got.Metadata.Name)
	assert.Equal(t, "New Template", got.Metadata.Title)
	assert.Equal(t, "", got.Metadata.Description)
	assert.Equal(t, []string{}, got.Metadata.Tags)
	assert.Equal(t, "my-team", got.Spec.Owner)
	assert.Equal(t, "service", got.Spec.Type)

	// a single parameter-step object is normalized into a list
	require.Len(t, got.Spec.Parameters, 1)
	step := got.Spec.Parameters[0]
	assert.Equal(t, "Step", step.Title)
	assert.Equal(t, []string{}, step.Required)
	prop, ok := step.Properties.Get("repoUrl")
	require.True(t, ok)
	assert.Equal(t, "repoUrl", prop.Title)
	assert.Equal(t, models.FieldString, prop.Type)

	require.Len(t, got.Spec.Steps, 1)
	assert.Regexp(t, `^fetch-template-[0-9a-f]{8}$`, got.Spec.Steps[0].ID)
	assert.Equal(t, "Unnamed Step", got.Spec.Steps[0].Name)
	assert.Equal(t, models.Values{}, got.Spec.Steps[0].Input)

	require.Len(t, got.Spec.Output.Links, 1)
	assert.Equal(t, "", got.Spec.Output.Links[0].Title)
}

func TestDecodeEmptySpec(t *testing.T) {
	got, err := transcode.Decode([]byte("apiVersion: v1\nkind: Whatever\n"))
	require.NoError(t, err)
	assert.Equal(t, "v1", got.APIVersion)
	assert.Equal(t, "Template", got.Kind)
	assert.Empty(t, got.Spec.Parameters)
	assert.NotNil(t, got.Spec.Parameters)
	assert.Empty(t, got.Spec.Steps)
	assert.NotNil(t, got.Spec.Output.Links)
}

func TestDecodeKeepsStepIDsAndRegeneratesParameterIDs(t *testing.T) {
	src := `
spec:
  parameters:
    - id: from-text
      title: One
  steps:
    - id: fetch-base
      action: fetch:template
`
	first, err := transcode.Decode([]byte(src))
	require.NoError(t, err)
	second, err := transcode.Decode([]byte(src))
	require.NoError(t, err)

	assert.NotEqual(t, "from-text", first.Spec.Parameters[0].ID)
	assert.NotEqual(t, first.Spec.Parameters[0].ID, second.Spec.Parameters[0].ID)
	assert.Equal(t, "fetch-base", first.Spec.Steps[0].ID)
	assert.Equal(t, "fetch-base", second.Spec.Steps[0].ID)
}

func TestDecodeFormatErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		notMapping bool
	}{
		{name: "malformed yaml", input: "metadata: [unclosed"},
		{name: "empty document", input: "", notMapping: true},
		{name: "scalar top level", input: "just text", notMapping: true},
		{name: "list top level", input: "- a\n- b\n", notMapping: true},
		{name: "wrong field type", input: "metadata:\n  tags: notalist\n"},
		{name: "scalar parameters", input: "spec:\n  parameters: 5\n"},
		{name: "scalar step input", input: "spec:\n  steps:\n    - action: debug:log\n      input: hello\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transcode.Decode([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, transcode.IsFormatError(err))
			var fe *transcode.FormatError
			require.True(t, errors.As(err, &fe))
			assert.NotEmpty(t, fe.Reason)
			assert.Equal(t, tt.notMapping, errors.Is(err, transcode.ErrNotMapping))
		})
	}
}
