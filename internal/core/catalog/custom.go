// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"fmt"

	"github.com/kusari-oss/stencil/internal/core/store"
)

// Custom holds user-added actions persisted in a store.
type Custom struct {
	store store.Store
}

func NewCustom(s store.Store) *Custom {
	return &Custom{store: s}
}

func (*Custom) Name() string { return "custom" }

func (c *Custom) Actions(ctx context.Context) ([]ActionDefinition, error) {
	var defs []ActionDefinition
	if _, err := store.GetJSON(ctx, c.store, store.KeyCustomActions, &defs); err != nil {
		return nil, err
	}
	if defs == nil {
		defs = []ActionDefinition{}
	}
	return defs, nil
}

// Add upserts def by its action key.
func (c *Custom) Add(ctx context.Context, def ActionDefinition) error {
	if def.Action == "" {
		return fmt.Errorf("action key cannot be empty")
	}
	defs, err := c.Actions(ctx)
	if err != nil {
		return err
	}

	def = def.Normalize()
	replaced := false
	for i := range defs {
		if defs[i].Action == def.Action {
			defs[i] = def
			replaced = true
			break
		}
	}
	if !replaced {
		defs = append(defs, def)
	}
	return store.SetJSON(ctx, c.store, store.KeyCustomActions, defs)
}

// Remove deletes the action with the given key. It reports whether
// anything was removed; an absent key is not an error.
func (c *Custom) Remove(ctx context.Context, action string) (bool, error) {
	defs, err := c.Actions(ctx)
	if err != nil {
		return false, err
	}

	kept := defs[:0]
	for _, d := range defs {
		if d.Action != action {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(defs) {
		return false, nil
	}
	return true, store.SetJSON(ctx, c.store, store.KeyCustomActions, kept)
}
