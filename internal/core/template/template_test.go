// SPDX-License-Identifier: Apache-2.0

package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusari-oss/stencil/internal/core/models"
	"github.com/kusari-oss/stencil/internal/core/template"
)

func TestProcessString(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   map[string]any
		expected string
		wantErr  bool
	}{
		{
			name:     "field",
			template: "Add {{ .repo }} template",
			params:   map[string]any{"repo": "acme/web"},
			expected: "Add acme/web template",
		},
		{
			name:     "missing key",
			template: "Add {{ .owner }}",
			params:   map[string]any{"repo": "acme/web"},
			wantErr:  true,
		},
		{
			name:     "upper",
			template: "{{ upper .kind }}",
			params:   map[string]any{"kind": "service"},
			expected: "SERVICE",
		},
		{
			name:     "slug func",
			template: "{{ slug .title }}",
			params:   map[string]any{"title": "My  New Service!"},
			expected: "my-new-service",
		},
		{
			name:     "parse error",
			template: "{{ .name ",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := template.ProcessString(tt.template, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestCommitMessage(t *testing.T) {
	tmpl := models.NewBlankTemplate()
	tmpl.Metadata.Name = "web-service"
	ctx := template.Context{Template: tmpl, Repo: "acme/templates", Path: "web/template.yaml"}

	msg, err := template.CommitMessage("", ctx)
	require.NoError(t, err)
	assert.Equal(t, "Update web-service template", msg)

	msg, err = template.CommitMessage("{{ .Template.Metadata.Title }} -> {{ .Repo }}:{{ .Path }}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "New Template -> acme/templates:web/template.yaml", msg)
}

func TestBranchName(t *testing.T) {
	tmpl := models.NewBlankTemplate()
	tmpl.Metadata.Name = "Web Service"

	name, err := template.BranchName("", template.Context{Template: tmpl})
	require.NoError(t, err)
	assert.Equal(t, "stencil/web-service", name)

	_, err = template.BranchName("bad {{ .Template.Metadata.Name }}", template.Context{Template: tmpl})
	assert.Error(t, err)
}
