// SPDX-License-Identifier: Apache-2.0

// Package editor holds the editing session state and the reducer that
// applies commands to it.
package editor

import "github.com/kusari-oss/stencil/internal/core/models"

// Tab is the active editor tab.
type Tab string

const (
	TabMetadata   Tab = "metadata"
	TabParameters Tab = "parameters"
	TabSteps      Tab = "steps"
	TabOutput     Tab = "output"
	TabValidation Tab = "validation"
)

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	switch t {
	case TabMetadata, TabParameters, TabSteps, TabOutput, TabValidation:
		return true
	}
	return false
}

// State is one editing session. It is plain data so drafts can store it
// as JSON.
type State struct {
	Template                *models.Template `json:"template"`
	ActiveTab               Tab              `json:"activeTab"`
	SelectedParameterStepID string           `json:"selectedParameterStepId,omitempty"`
	SelectedFieldKey        string           `json:"selectedFieldKey,omitempty"`
	SelectedStepID          string           `json:"selectedStepId,omitempty"`
	IsDirty                 bool             `json:"isDirty"`
	LoadingRepo             bool             `json:"loadingRepo"`
	RepoError               string           `json:"repoError,omitempty"`
}

// NewState opens a session on t, or on a blank template when t is nil.
// The first parameter step is selected.
func NewState(t *models.Template) State {
	if t == nil {
		t = models.NewBlankTemplate()
	}
	s := State{Template: t, ActiveTab: TabMetadata}
	if len(t.Spec.Parameters) > 0 {
		s.SelectedParameterStepID = t.Spec.Parameters[0].ID
	}
	return s
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Template = s.Template.Clone()
	return out
}
