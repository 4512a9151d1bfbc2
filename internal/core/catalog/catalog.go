// SPDX-License-Identifier: Apache-2.0

// Package catalog is the registry of known step actions. Definitions come
// from an ordered list of providers; later providers override earlier ones
// by exact key.
package catalog

import (
	"context"
	"fmt"
)

// Provider supplies one layer of action definitions.
type Provider interface {
	Name() string
	Actions(ctx context.Context) ([]ActionDefinition, error)
}

// Lookup resolves an action key.
type Lookup interface {
	Lookup(action string) (ActionDefinition, bool)
}

// Catalog merges providers from lowest to highest precedence.
type Catalog struct {
	providers []Provider
}

// New creates a catalog. Providers are given lowest precedence first.
func New(providers ...Provider) *Catalog {
	return &Catalog{providers: providers}
}

// Load queries every provider and merges the results into an Index.
func (c *Catalog) Load(ctx context.Context) (*Index, error) {
	idx := NewIndex()
	for _, p := range c.providers {
		defs, err := p.Actions(ctx)
		if err != nil {
			return nil, fmt.Errorf("error loading %s actions: %w", p.Name(), err)
		}
		idx.Put(defs...)
	}
	return idx, nil
}

// Index is a merged, immutable-by-convention view of the catalog.
type Index struct {
	order []string
	byKey map[string]ActionDefinition
}

// NewIndex builds an index from definitions; duplicates are last-wins.
func NewIndex(defs ...ActionDefinition) *Index {
	idx := &Index{byKey: make(map[string]ActionDefinition)}
	idx.Put(defs...)
	return idx
}

// Put upserts definitions. A replaced key keeps its original position.
func (i *Index) Put(defs ...ActionDefinition) {
	for _, d := range defs {
		if d.Action == "" {
			continue
		}
		if _, exists := i.byKey[d.Action]; !exists {
			i.order = append(i.order, d.Action)
		}
		i.byKey[d.Action] = d
	}
}

// Lookup is an exact, case-sensitive key match.
func (i *Index) Lookup(action string) (ActionDefinition, bool) {
	d, ok := i.byKey[action]
	return d, ok
}

// All returns every definition in merge order.
func (i *Index) All() []ActionDefinition {
	out := make([]ActionDefinition, 0, len(i.order))
	for _, k := range i.order {
		out = append(out, i.byKey[k])
	}
	return out
}

// ByCategory returns the definitions of one category in merge order.
func (i *Index) ByCategory(c Category) []ActionDefinition {
	var out []ActionDefinition
	for _, k := range i.order {
		if d := i.byKey[k]; d.Category == c {
			out = append(out, d)
		}
	}
	return out
}

// Len is the number of distinct keys.
func (i *Index) Len() int {
	return len(i.order)
}

// Static is a fixed provider.
type Static struct {
	name string
	defs []ActionDefinition
}

// NewStatic returns a provider that always yields defs.
func NewStatic(name string, defs ...ActionDefinition) *Static {
	return &Static{name: name, defs: defs}
}

func (s *Static) Name() string { return s.name }

func (s *Static) Actions(context.Context) ([]ActionDefinition, error) {
	return append([]ActionDefinition(nil), s.defs...), nil
}
