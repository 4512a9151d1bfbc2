// SPDX-License-Identifier: Apache-2.0

package editor

import "github.com/kusari-oss/stencil/internal/core/models"

// Command is one edit. The set is closed; only types in this package
// implement it.
type Command interface {
	command()
}

// MetadataPatch sets the non-nil fields of the metadata.
type MetadataPatch struct {
	Name        *string           `json:"name,omitempty"`
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// SpecPatch sets the non-nil scalar fields of the spec. Lists have their
// own commands.
type SpecPatch struct {
	Owner  *string `json:"owner,omitempty"`
	System *string `json:"system,omitempty"`
	Type   *string `json:"type,omitempty"`
}

// ParameterStepPatch sets the non-nil fields of a parameter step.
type ParameterStepPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// StepPatch sets the non-nil fields of an action step. A new ID must not
// collide with another step.
type StepPatch struct {
	ID     *string       `json:"id,omitempty"`
	Name   *string       `json:"name,omitempty"`
	Action *string       `json:"action,omitempty"`
	If     *string       `json:"if,omitempty"`
	Input  models.Values `json:"input,omitempty"`
}

type (
	SetDocument struct {
		Template *models.Template `json:"template"`
	}
	SetTab struct {
		Tab Tab `json:"tab"`
	}

	UpdateMetadata struct {
		Patch MetadataPatch `json:"patch"`
	}
	UpdateSpec struct {
		Patch SpecPatch `json:"patch"`
	}

	AddParameterStep struct {
		Step models.ParameterStep `json:"step"`
	}
	UpdateParameterStep struct {
		ID    string             `json:"id"`
		Patch ParameterStepPatch `json:"patch"`
	}
	DeleteParameterStep struct {
		ID string `json:"id"`
	}
	ReorderParameterSteps struct {
		IDs []string `json:"ids"`
	}
	SelectParameterStep struct {
		ID string `json:"id"`
	}

	AddParameterField struct {
		StepID   string                   `json:"stepId"`
		Key      string                   `json:"key"`
		Property models.ParameterProperty `json:"property"`
	}
	UpdateParameterField struct {
		StepID   string                   `json:"stepId"`
		Key      string                   `json:"key"`
		Property models.ParameterProperty `json:"property"`
	}
	DeleteParameterField struct {
		StepID string `json:"stepId"`
		Key    string `json:"key"`
	}
	RenameParameterField struct {
		StepID string `json:"stepId"`
		OldKey string `json:"oldKey"`
		NewKey string `json:"newKey"`
	}
	SelectField struct {
		Key string `json:"key"`
	}
	ToggleRequiredField struct {
		StepID string `json:"stepId"`
		Key    string `json:"key"`
	}

	AddStep struct {
		Step models.Step `json:"step"`
	}
	UpdateStep struct {
		ID    string    `json:"id"`
		Patch StepPatch `json:"patch"`
	}
	DeleteStep struct {
		ID string `json:"id"`
	}
	ReorderSteps struct {
		IDs []string `json:"ids"`
	}
	SelectStep struct {
		ID string `json:"id"`
	}

	AddOutputLink struct {
		Link models.OutputLink `json:"link"`
	}
	UpdateOutputLink struct {
		Index int               `json:"index"`
		Link  models.OutputLink `json:"link"`
	}
	DeleteOutputLink struct {
		Index int `json:"index"`
	}

	SetLoadingRepo struct {
		Loading bool `json:"loading"`
	}
	SetRepoError struct {
		Err string `json:"error"`
	}
	MarkClean struct{}
)

func (SetDocument) command()           {}
func (SetTab) command()                {}
func (UpdateMetadata) command()        {}
func (UpdateSpec) command()            {}
func (AddParameterStep) command()      {}
func (UpdateParameterStep) command()   {}
func (DeleteParameterStep) command()   {}
func (ReorderParameterSteps) command() {}
func (SelectParameterStep) command()   {}
func (AddParameterField) command()     {}
func (UpdateParameterField) command()  {}
func (DeleteParameterField) command()  {}
func (RenameParameterField) command()  {}
func (SelectField) command()           {}
func (ToggleRequiredField) command()   {}
func (AddStep) command()               {}
func (UpdateStep) command()            {}
func (DeleteStep) command()            {}
func (ReorderSteps) command()          {}
func (SelectStep) command()            {}
func (AddOutputLink) command()         {}
func (UpdateOutputLink) command()      {}
func (DeleteOutputLink) command()      {}
func (SetLoadingRepo) command()        {}
func (SetRepoError) command()          {}
func (MarkClean) command()             {}
