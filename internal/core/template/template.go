// SPDX-License-Identifier: Apache-2.0

// Package template renders commit messages and branch names from a template
// document using text/template.
package template

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/kusari-oss/stencil/internal/core/models"
)

const (
	DefaultCommitMessage = "Update {{ .Template.Metadata.Name }} template"
	DefaultBranchName    = "stencil/{{ slug .Template.Metadata.Name }}"
)

// Context is the data available to commit message and branch templates.
type Context struct {
	Template *models.Template
	Repo     string // owner/name
	Path     string
	Branch   string
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

var funcs = template.FuncMap{
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"slug": func(s string) string {
		return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	},
}

// ProcessString renders text against data. Missing map keys are errors.
func ProcessString(text string, data any) ([]byte, error) {
	tmpl, err := template.New("template").Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("error parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("error executing template: %w", err)
	}

	return buf.Bytes(), nil
}

// CommitMessage renders a commit message. An empty text uses DefaultCommitMessage.
func CommitMessage(text string, ctx Context) (string, error) {
	if text == "" {
		text = DefaultCommitMessage
	}
	return render(text, ctx)
}

// BranchName renders a branch name. An empty text uses DefaultBranchName.
func BranchName(text string, ctx Context) (string, error) {
	if text == "" {
		text = DefaultBranchName
	}
	name, err := render(text, ctx)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(name, " ~^:?*[\\") {
		return "", fmt.Errorf("invalid branch name %q", name)
	}
	return name, nil
}

func render(text string, ctx Context) (string, error) {
	if ctx.Template == nil {
		ctx.Template = models.NewBlankTemplate()
	}
	out, err := ProcessString(text, ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
