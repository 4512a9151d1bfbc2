// SPDX-License-Identifier: Apache-2.0

package models

// Property is one keyed entry of a parameter step's properties.
type Property struct {
	Key    string            `json:"key"`
	Schema ParameterProperty `json:"schema"`
}

// Properties is an insertion-ordered map of field key to schema. Display
// order of the wizard follows the slice order.
type Properties []Property

// Index returns the position of key, or -1.
func (p Properties) Index(key string) int {
	for i := range p {
		if p[i].Key == key {
			return i
		}
	}
	return -1
}

// Has reports whether key is present.
func (p Properties) Has(key string) bool {
	return p.Index(key) >= 0
}

// Get returns the schema stored under key.
func (p Properties) Get(key string) (ParameterProperty, bool) {
	if i := p.Index(key); i >= 0 {
		return p[i].Schema, true
	}
	return ParameterProperty{}, false
}

// Keys returns the keys in display order.
func (p Properties) Keys() []string {
	keys := make([]string, len(p))
	for i := range p {
		keys[i] = p[i].Key
	}
	return keys
}

// Set replaces the schema under key in place, or appends a new entry.
func (p Properties) Set(key string, schema ParameterProperty) Properties {
	if i := p.Index(key); i >= 0 {
		p[i].Schema = schema
		return p
	}
	return append(p, Property{Key: key, Schema: schema})
}

// Delete removes key if present.
func (p Properties) Delete(key string) Properties {
	i := p.Index(key)
	if i < 0 {
		return p
	}
	return append(p[:i:i], p[i+1:]...)
}

// Rename changes the key of an entry without moving it. It is a no-op when
// oldKey is missing or newKey is already taken.
func (p Properties) Rename(oldKey, newKey string) Properties {
	i := p.Index(oldKey)
	if i < 0 || oldKey == newKey || p.Has(newKey) {
		return p
	}
	p[i].Key = newKey
	return p
}

// Clone returns a deep copy.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for i := range p {
		out[i] = Property{Key: p[i].Key, Schema: p[i].Schema.Clone()}
	}
	return out
}
