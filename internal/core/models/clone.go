// SPDX-License-Identifier: Apache-2.0

package models

// Clone returns a deep copy of the template. The editor reducer relies on
// this to never share memory between successive states.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Metadata = t.Metadata.Clone()
	out.Spec = t.Spec.Clone()
	return &out
}

// Clone returns a deep copy of the metadata.
func (m Metadata) Clone() Metadata {
	out := m
	out.Tags = cloneStrings(m.Tags)
	if m.Annotations != nil {
		out.Annotations = make(map[string]string, len(m.Annotations))
		for k, v := range m.Annotations {
			out.Annotations[k] = v
		}
	}
	return out
}

// Clone returns a deep copy of the spec.
func (s Spec) Clone() Spec {
	out := s
	if s.Parameters != nil {
		out.Parameters = make([]ParameterStep, len(s.Parameters))
		for i := range s.Parameters {
			out.Parameters[i] = s.Parameters[i].Clone()
		}
	}
	if s.Steps != nil {
		out.Steps = make([]Step, len(s.Steps))
		for i := range s.Steps {
			out.Steps[i] = s.Steps[i].Clone()
		}
	}
	out.Output = s.Output.Clone()
	return out
}

// Clone returns a deep copy of the parameter step.
func (p ParameterStep) Clone() ParameterStep {
	out := p
	out.Required = cloneStrings(p.Required)
	out.Properties = p.Properties.Clone()
	return out
}

// Clone returns a deep copy of the property schema.
func (p ParameterProperty) Clone() ParameterProperty {
	out := p
	out.Default = CloneValue(p.Default)
	out.Enum = cloneStrings(p.Enum)
	out.EnumNames = cloneStrings(p.EnumNames)
	if p.MinLength != nil {
		v := *p.MinLength
		out.MinLength = &v
	}
	if p.MaxLength != nil {
		v := *p.MaxLength
		out.MaxLength = &v
	}
	if p.Items != nil {
		items := Items{Type: p.Items.Type, Enum: cloneStrings(p.Items.Enum)}
		out.Items = &items
	}
	if p.UIOptions != nil {
		out.UIOptions = CloneValue(p.UIOptions).(map[string]any)
	}
	return out
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	out := s
	out.Input = s.Input.Clone()
	return out
}

// Clone returns a deep copy of the output.
func (o Output) Clone() Output {
	if o.Links == nil {
		return Output{}
	}
	links := make([]OutputLink, len(o.Links))
	copy(links, o.Links)
	return Output{Links: links}
}

// CloneValue deep-copies a dynamic value made of maps, slices and scalars.
func CloneValue(v any) any {
	switch t := v.(type) {
	case Values:
		return t.Clone()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = CloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = CloneValue(val)
		}
		return out
	case []string:
		return cloneStrings(t)
	default:
		return v
	}
}

// UniqueStrings returns in without repeats, keeping the first occurrence of
// each value.
func UniqueStrings(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
