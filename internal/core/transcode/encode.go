// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kusari-oss/stencil/internal/core/models"
)

// Indent is the indentation width of emitted documents.
const Indent = 2

// Encode renders a template as YAML. Keys follow the model's field order and
// empty optional fields are left out.
func Encode(t *models.Template) ([]byte, error) {
	root, err := templateNode(t)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(Indent)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("error encoding template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("error encoding template: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeString is Encode for callers that work with strings.
func EncodeString(t *models.Template) (string, error) {
	data, err := Encode(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// mapping builds a block mapping node with keys in insertion order.
type mapping struct {
	node *yaml.Node
}

func newMapping() *mapping {
	return &mapping{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

func (m *mapping) add(key string, value *yaml.Node) {
	m.node.Content = append(m.node.Content, strNode(key), value)
}

func (m *mapping) str(key, value string) {
	m.add(key, strNode(value))
}

func (m *mapping) strIf(key, value string) {
	if value != "" {
		m.str(key, value)
	}
}

// yaml11Bools are plain scalars that YAML 1.1 readers take as booleans.
var yaml11Bools = map[string]bool{
	"y": true, "Y": true, "yes": true, "Yes": true, "YES": true,
	"n": true, "N": true, "no": true, "No": true, "NO": true,
	"on": true, "On": true, "ON": true,
	"off": true, "Off": true, "OFF": true,
}

func strNode(s string) *yaml.Node {
	n := &yaml.Node{}
	n.SetString(s)
	if yaml11Bools[s] {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func intNode(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
}

func boolNode(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
}

func strSeq(values []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		n.Content = append(n.Content, strNode(v))
	}
	return n
}

// valueNode encodes a dynamic value. models.Values keep their key order;
// plain maps come out with sorted keys.
func valueNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case models.Values:
		m := newMapping()
		for _, f := range t {
			n, err := valueNode(f.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Key, err)
			}
			m.add(f.Key, n)
		}
		return m.node, nil
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			n, err := valueNode(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case string:
		return strNode(t), nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

func templateNode(t *models.Template) (*yaml.Node, error) {
	root := newMapping()
	root.str("apiVersion", t.APIVersion)
	root.str("kind", models.TemplateKind)

	meta := newMapping()
	meta.str("name", t.Metadata.Name)
	meta.str("title", t.Metadata.Title)
	meta.str("description", t.Metadata.Description)
	if len(t.Metadata.Tags) > 0 {
		meta.add("tags", strSeq(t.Metadata.Tags))
	}
	if len(t.Metadata.Annotations) > 0 {
		ann, err := valueNode(t.Metadata.Annotations)
		if err != nil {
			return nil, fmt.Errorf("error encoding metadata.annotations: %w", err)
		}
		meta.add("annotations", ann)
	}
	root.add("metadata", meta.node)

	spec := newMapping()
	spec.str("owner", t.Spec.Owner)
	spec.strIf("system", t.Spec.System)
	spec.str("type", t.Spec.Type)

	params := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i := range t.Spec.Parameters {
		n, err := parameterStepNode(&t.Spec.Parameters[i])
		if err != nil {
			return nil, fmt.Errorf("error encoding parameters[%d]: %w", i, err)
		}
		params.Content = append(params.Content, n)
	}
	spec.add("parameters", params)

	steps := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i := range t.Spec.Steps {
		n, err := stepNode(&t.Spec.Steps[i])
		if err != nil {
			return nil, fmt.Errorf("error encoding steps[%d]: %w", i, err)
		}
		steps.Content = append(steps.Content, n)
	}
	spec.add("steps", steps)
	spec.add("output", outputNode(t.Spec.Output))
	root.add("spec", spec.node)

	return root.node, nil
}

func parameterStepNode(p *models.ParameterStep) (*yaml.Node, error) {
	m := newMapping()
	m.str("title", p.Title)
	m.strIf("description", p.Description)
	if len(p.Required) > 0 {
		m.add("required", strSeq(p.Required))
	}

	props := newMapping()
	for _, prop := range p.Properties {
		n, err := propertyNode(prop.Schema)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", prop.Key, err)
		}
		props.add(prop.Key, n)
	}
	m.add("properties", props.node)
	return m.node, nil
}

func propertyNode(p models.ParameterProperty) (*yaml.Node, error) {
	m := newMapping()
	m.str("title", p.Title)
	m.str("type", string(p.Type))
	m.strIf("description", p.Description)
	if p.Default != nil && p.Default != "" {
		def, err := valueNode(p.Default)
		if err != nil {
			return nil, err
		}
		m.add("default", def)
	}
	if len(p.Enum) > 0 {
		m.add("enum", strSeq(p.Enum))
	}
	if len(p.EnumNames) > 0 {
		m.add("enumNames", strSeq(p.EnumNames))
	}
	m.strIf("pattern", p.Pattern)
	if p.MinLength != nil {
		m.add("minLength", intNode(*p.MinLength))
	}
	if p.MaxLength != nil {
		m.add("maxLength", intNode(*p.MaxLength))
	}
	if p.UniqueItems {
		m.add("uniqueItems", boolNode(true))
	}
	if p.Items != nil {
		items := newMapping()
		items.str("type", p.Items.Type)
		if len(p.Items.Enum) > 0 {
			items.add("enum", strSeq(p.Items.Enum))
		}
		m.add("items", items.node)
	}
	m.strIf("ui:field", p.UIField)
	m.strIf("ui:widget", p.UIWidget)
	if len(p.UIOptions) > 0 {
		opts, err := valueNode(p.UIOptions)
		if err != nil {
			return nil, err
		}
		m.add("ui:options", opts)
	}
	if p.UIAutofocus {
		m.add("ui:autofocus", boolNode(true))
	}
	return m.node, nil
}

func stepNode(s *models.Step) (*yaml.Node, error) {
	m := newMapping()
	m.str("id", s.ID)
	m.str("name", s.Name)
	m.str("action", s.Action)
	m.strIf("if", s.If)
	if len(s.Input) > 0 {
		in, err := valueNode(s.Input)
		if err != nil {
			return nil, err
		}
		m.add("input", in)
	}
	return m.node, nil
}

func outputNode(o models.Output) *yaml.Node {
	out := newMapping()
	if len(o.Links) == 0 {
		out.node.Style = yaml.FlowStyle
		return out.node
	}
	links := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, l := range o.Links {
		m := newMapping()
		m.str("title", l.Title)
		m.strIf("url", l.URL)
		m.strIf("icon", l.Icon)
		m.strIf("entityRef", l.EntityRef)
		links.Content = append(links.Content, m.node)
	}
	out.add("links", links)
	return out.node
}
