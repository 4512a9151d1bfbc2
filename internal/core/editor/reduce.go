// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"github.com/kusari-oss/stencil/internal/core/models"
)

// Reduce applies cmd to s and returns the new state. s is never modified
// and the result shares no memory with it. Commands whose target does not
// exist, and unknown commands, return s unchanged.
func Reduce(s State, cmd Command) State {
	next := s.Clone()
	if !apply(&next, cmd) {
		return s
	}
	return next
}

// ReduceAll applies commands in order.
func ReduceAll(s State, cmds ...Command) State {
	for _, c := range cmds {
		s = Reduce(s, c)
	}
	return s
}

func apply(s *State, cmd Command) bool {
	switch c := cmd.(type) {
	case SetDocument:
		if c.Template == nil {
			return false
		}
		s.Template = c.Template.Clone()
		s.IsDirty = false
		return true
	case SetTab:
		if !c.Tab.Valid() {
			return false
		}
		s.ActiveTab = c.Tab
		return true
	case SelectParameterStep:
		s.SelectedParameterStepID = c.ID
		s.SelectedFieldKey = ""
		return true
	case SelectField:
		s.SelectedFieldKey = c.Key
		return true
	case SelectStep:
		s.SelectedStepID = c.ID
		return true
	case SetLoadingRepo:
		s.LoadingRepo = c.Loading
		return true
	case SetRepoError:
		s.RepoError = c.Err
		return true
	case MarkClean:
		s.IsDirty = false
		return true
	}

	if s.Template == nil || !edit(s, cmd) {
		return false
	}
	s.IsDirty = true
	return true
}

// edit applies document commands. It reports false for a no-op.
func edit(s *State, cmd Command) bool {
	spec := &s.Template.Spec

	switch c := cmd.(type) {
	case UpdateMetadata:
		m := &s.Template.Metadata
		p := c.Patch
		setString(&m.Name, p.Name)
		setString(&m.Title, p.Title)
		setString(&m.Description, p.Description)
		if p.Tags != nil {
			m.Tags = models.UniqueStrings(p.Tags)
		}
		if p.Annotations != nil {
			m.Annotations = make(map[string]string, len(p.Annotations))
			for k, v := range p.Annotations {
				m.Annotations[k] = v
			}
		}
		return true

	case UpdateSpec:
		setString(&spec.Owner, c.Patch.Owner)
		setString(&spec.System, c.Patch.System)
		setString(&spec.Type, c.Patch.Type)
		return true

	case AddParameterStep:
		step := c.Step.Clone()
		if step.ID == "" {
			step.ID = models.NewID()
		} else if spec.ParameterStepIndex(step.ID) >= 0 {
			return false
		}
		if step.Required == nil {
			step.Required = []string{}
		}
		if step.Properties == nil {
			step.Properties = models.Properties{}
		}
		spec.Parameters = append(spec.Parameters, step)
		return true

	case UpdateParameterStep:
		i := spec.ParameterStepIndex(c.ID)
		if i < 0 {
			return false
		}
		setString(&spec.Parameters[i].Title, c.Patch.Title)
		setString(&spec.Parameters[i].Description, c.Patch.Description)
		return true

	case DeleteParameterStep:
		i := spec.ParameterStepIndex(c.ID)
		if i < 0 {
			return false
		}
		spec.Parameters = append(spec.Parameters[:i:i], spec.Parameters[i+1:]...)
		if s.SelectedParameterStepID == c.ID {
			s.SelectedParameterStepID = ""
			s.SelectedFieldKey = ""
		}
		return true

	case ReorderParameterSteps:
		reordered, ok := reorder(spec.Parameters, c.IDs, func(p models.ParameterStep) string { return p.ID })
		if !ok {
			return false
		}
		spec.Parameters = reordered
		return true

	case AddParameterField:
		step := parameterStep(spec, c.StepID)
		if step == nil || c.Key == "" {
			return false
		}
		step.Properties = step.Properties.Set(c.Key, c.Property.Clone())
		return true

	case UpdateParameterField:
		step := parameterStep(spec, c.StepID)
		if step == nil || !step.Properties.Has(c.Key) {
			return false
		}
		step.Properties = step.Properties.Set(c.Key, c.Property.Clone())
		return true

	case DeleteParameterField:
		step := parameterStep(spec, c.StepID)
		if step == nil || !step.Properties.Has(c.Key) {
			return false
		}
		step.Properties = step.Properties.Delete(c.Key)
		step.Required = without(step.Required, c.Key)
		if s.SelectedFieldKey == c.Key {
			s.SelectedFieldKey = ""
		}
		return true

	case RenameParameterField:
		step := parameterStep(spec, c.StepID)
		if step == nil || c.NewKey == "" || c.OldKey == c.NewKey ||
			!step.Properties.Has(c.OldKey) || step.Properties.Has(c.NewKey) {
			return false
		}
		step.Properties = step.Properties.Rename(c.OldKey, c.NewKey)
		for i, r := range step.Required {
			if r == c.OldKey {
				step.Required[i] = c.NewKey
			}
		}
		if s.SelectedFieldKey == c.OldKey {
			s.SelectedFieldKey = c.NewKey
		}
		return true

	case ToggleRequiredField:
		step := parameterStep(spec, c.StepID)
		if step == nil {
			return false
		}
		if step.IsRequired(c.Key) {
			step.Required = without(step.Required, c.Key)
			return true
		}
		// only existing fields may become required
		if !step.Properties.Has(c.Key) {
			return false
		}
		step.Required = append(step.Required, c.Key)
		return true

	case AddStep:
		step := c.Step.Clone()
		if step.ID == "" {
			step.ID = models.NewStepID(step.Action)
		} else if spec.StepIndex(step.ID) >= 0 {
			return false
		}
		if step.Input == nil {
			step.Input = models.Values{}
		}
		spec.Steps = append(spec.Steps, step)
		return true

	case UpdateStep:
		i := spec.StepIndex(c.ID)
		if i < 0 {
			return false
		}
		p := c.Patch
		if p.ID != nil && *p.ID != c.ID {
			if *p.ID == "" || spec.StepIndex(*p.ID) >= 0 {
				return false
			}
			if s.SelectedStepID == c.ID {
				s.SelectedStepID = *p.ID
			}
		}
		step := &spec.Steps[i]
		setString(&step.ID, p.ID)
		setString(&step.Name, p.Name)
		setString(&step.Action, p.Action)
		setString(&step.If, p.If)
		if p.Input != nil {
			step.Input = p.Input.Clone()
		}
		return true

	case DeleteStep:
		i := spec.StepIndex(c.ID)
		if i < 0 {
			return false
		}
		spec.Steps = append(spec.Steps[:i:i], spec.Steps[i+1:]...)
		if s.SelectedStepID == c.ID {
			s.SelectedStepID = ""
		}
		return true

	case ReorderSteps:
		reordered, ok := reorder(spec.Steps, c.IDs, func(st models.Step) string { return st.ID })
		if !ok {
			return false
		}
		spec.Steps = reordered
		return true

	case AddOutputLink:
		spec.Output.Links = append(spec.Output.Links, c.Link)
		return true

	case UpdateOutputLink:
		if c.Index < 0 || c.Index >= len(spec.Output.Links) {
			return false
		}
		spec.Output.Links[c.Index] = c.Link
		return true

	case DeleteOutputLink:
		links := spec.Output.Links
		if c.Index < 0 || c.Index >= len(links) {
			return false
		}
		spec.Output.Links = append(links[:c.Index:c.Index], links[c.Index+1:]...)
		return true
	}
	return false
}

func parameterStep(spec *models.Spec, id string) *models.ParameterStep {
	i := spec.ParameterStepIndex(id)
	if i < 0 {
		return nil
	}
	return &spec.Parameters[i]
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func without(list []string, key string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != key {
			out = append(out, v)
		}
	}
	return out
}

// reorder arranges items in the order of ids. ids must name every item
// exactly once.
func reorder[T any](items []T, ids []string, id func(T) string) ([]T, bool) {
	if len(ids) != len(items) {
		return nil, false
	}
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[id(it)] = it
	}
	if len(byID) != len(items) {
		// duplicate ids cannot be addressed
		return nil, false
	}
	out := make([]T, 0, len(ids))
	for _, k := range ids {
		it, ok := byID[k]
		if !ok {
			return nil, false
		}
		delete(byID, k)
		out = append(out, it)
	}
	return out, true
}
