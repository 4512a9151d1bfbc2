// SPDX-License-Identifier: Apache-2.0

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Field is one keyed entry of Values.
type Field struct {
	Key   string
	Value any
}

// Values is an insertion-ordered mapping of dynamic values, as written in a
// step input. Nested mappings are Values as well, so the order of every
// level survives a decode and encode. In JSON it is a plain object whose
// members keep their order.
type Values []Field

// ValuesOf converts a plain map, sorting its keys. Nested maps are converted
// too.
func ValuesOf(m map[string]any) Values {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Values, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Key: k, Value: orderedValue(m[k])})
	}
	return out
}

func orderedValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return ValuesOf(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = orderedValue(item)
		}
		return out
	default:
		return v
	}
}

// Index returns the position of key, or -1.
func (v Values) Index(key string) int {
	for i := range v {
		if v[i].Key == key {
			return i
		}
	}
	return -1
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	return v.Index(key) >= 0
}

// Get returns the value stored under key.
func (v Values) Get(key string) (any, bool) {
	if i := v.Index(key); i >= 0 {
		return v[i].Value, true
	}
	return nil, false
}

// Keys returns the keys in document order.
func (v Values) Keys() []string {
	keys := make([]string, len(v))
	for i := range v {
		keys[i] = v[i].Key
	}
	return keys
}

// Set replaces the value under key in place, or appends a new entry.
func (v Values) Set(key string, value any) Values {
	if i := v.Index(key); i >= 0 {
		v[i].Value = value
		return v
	}
	return append(v, Field{Key: key, Value: value})
}

// Delete removes key if present.
func (v Values) Delete(key string) Values {
	i := v.Index(key)
	if i < 0 {
		return v
	}
	return append(v[:i:i], v[i+1:]...)
}

// Clone returns a deep copy.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for i := range v {
		out[i] = Field{Key: v[i].Key, Value: CloneValue(v[i].Value)}
	}
	return out
}

// Map returns the values as plain maps, dropping the order.
func (v Values) Map() map[string]any {
	if v == nil {
		return nil
	}
	out := make(map[string]any, len(v))
	for _, f := range v {
		out[f.Key] = plainValue(f.Value)
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case Values:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plainValue(item)
		}
		return out
	default:
		return v
	}
}

func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("value of %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (v *Values) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	val, err := decodeJSON(dec)
	if err != nil {
		return err
	}
	switch t := val.(type) {
	case nil:
		*v = nil
	case Values:
		*v = t
	default:
		return fmt.Errorf("expected a JSON object, got %T", val)
	}
	return nil
}

// decodeJSON reads one JSON value, building Values for objects so that
// member order is kept.
func decodeJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		out := Values{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("invalid object key %v", keyTok)
			}
			val, err := decodeJSON(dec)
			if err != nil {
				return nil, err
			}
			out = out.Set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return out, nil
	case '[':
		out := []any{}
		for dec.More() {
			val, err := decodeJSON(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected %v", delim)
	}
}
