// SPDX-License-Identifier: Apache-2.0

// Package parameters resolves ${{ parameters.x }} references against wizard
// values and converts raw command line values to their schema types.
package parameters

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kusari-oss/stencil/internal/core/models"
)

var refPattern = regexp.MustCompile(`\$\{\{\s*parameters\.(\w+)\s*\}\}`)

// MissingError lists references that had no value.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing values for parameters: %s", strings.Join(e.Names, ", "))
}

// ParameterProcessor substitutes parameter references.
type ParameterProcessor struct {
	missing map[string]bool
}

func NewParameterProcessor() *ParameterProcessor {
	return &ParameterProcessor{}
}

// SubstituteString replaces references in s. A string that is exactly one
// reference resolves to the raw value so that numbers, booleans and lists
// keep their type. Unresolved references are left in place.
func (p *ParameterProcessor) SubstituteString(s string, data map[string]any) any {
	if m := refPattern.FindStringSubmatchIndex(s); m != nil && m[0] == 0 && m[1] == len(s) {
		name := s[m[2]:m[3]]
		if v, ok := data[name]; ok {
			return models.CloneValue(v)
		}
		p.miss(name)
		return s
	}

	return refPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := refPattern.FindStringSubmatch(match)[1]
		v, ok := data[name]
		if !ok {
			p.miss(name)
			return match
		}
		switch val := v.(type) {
		case []any, map[string]any, []string, models.Values:
			b, err := json.Marshal(val)
			if err != nil {
				return match
			}
			return string(b)
		default:
			return fmt.Sprintf("%v", val)
		}
	})
}

// Process substitutes references in every string of a JSON-like value.
func (p *ParameterProcessor) Process(value any, data map[string]any) any {
	switch v := value.(type) {
	case string:
		return p.SubstituteString(v, data)
	case models.Values:
		out := make(models.Values, len(v))
		for i, f := range v {
			out[i] = models.Field{Key: f.Key, Value: p.Process(f.Value, data)}
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = p.Process(item, data)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = p.Process(item, data)
		}
		return out
	default:
		return v
	}
}

// ProcessMap resolves a step input. The result is complete even when some
// references are missing; the error is then a *MissingError.
func (p *ParameterProcessor) ProcessMap(params models.Values, data map[string]any) (models.Values, error) {
	p.missing = nil
	out := make(models.Values, len(params))
	for i, f := range params {
		out[i] = models.Field{Key: f.Key, Value: p.Process(f.Value, data)}
	}
	if len(p.missing) > 0 {
		names := make([]string, 0, len(p.missing))
		for n := range p.missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return out, &MissingError{Names: names}
	}
	return out, nil
}

func (p *ParameterProcessor) miss(name string) {
	if p.missing == nil {
		p.missing = make(map[string]bool)
	}
	p.missing[name] = true
}

// ExtractReferences returns the distinct parameter names referenced in s, sorted.
func ExtractReferences(s string) []string {
	seen := make(map[string]bool)
	for _, m := range refPattern.FindAllStringSubmatch(s, -1) {
		seen[m[1]] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Defaults collects the default value of every property across all
// parameter steps. Later steps win on duplicate keys.
func Defaults(steps []models.ParameterStep) map[string]any {
	out := make(map[string]any)
	for _, step := range steps {
		for _, p := range step.Properties {
			if p.Schema.Default != nil {
				out[p.Key] = models.CloneValue(p.Schema.Default)
			}
		}
	}
	return out
}

// MergeWithDefaults overlays values on defaults.
func MergeWithDefaults(values, defaults map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(values))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range values {
		out[k] = v
	}
	return out
}

// Coerce converts a raw string to the type its property declares. Arrays
// accept a JSON list or a comma separated list.
func Coerce(raw string, prop models.ParameterProperty) (any, error) {
	switch prop.Type {
	case models.FieldNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", raw, err)
		}
		return n, nil
	case models.FieldBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q: %w", raw, err)
		}
		return b, nil
	case models.FieldArray:
		if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
			var list []any
			if err := json.Unmarshal([]byte(raw), &list); err != nil {
				return nil, fmt.Errorf("invalid list %q: %w", raw, err)
			}
			return list, nil
		}
		list := []any{}
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
		return list, nil
	case models.FieldObject:
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("invalid object %q: %w", raw, err)
		}
		return obj, nil
	default:
		return raw, nil
	}
}

// ParseAssignments turns key=value pairs into typed values, looking each
// key up in the parameter steps. Unknown keys stay strings.
func ParseAssignments(pairs []string, steps []models.ParameterStep) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", pair)
		}
		prop, found := lookupProperty(steps, key)
		if !found {
			out[key] = raw
			continue
		}
		v, err := Coerce(raw, prop)
		if err != nil {
			return nil, fmt.Errorf("error processing parameter %s: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

func lookupProperty(steps []models.ParameterStep, key string) (models.ParameterProperty, bool) {
	for i := len(steps) - 1; i >= 0; i-- {
		if p, ok := steps[i].Properties.Get(key); ok {
			return p, true
		}
	}
	return models.ParameterProperty{}, false
}
