// SPDX-License-Identifier: Apache-2.0

// Package draft saves and resumes editing sessions in a store.Store.
package draft

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kusari-oss/stencil/internal/core/editor"
	"github.com/kusari-oss/stencil/internal/core/store"
)

// DefaultName is the draft used when no name is given.
const DefaultName = "default"

// Draft is a saved session.
type Draft struct {
	Name    string       `json:"name"`
	SavedAt time.Time    `json:"savedAt"`
	State   editor.State `json:"state"`
}

// Drafts is the draft cache.
type Drafts struct {
	store store.Store
	now   func() time.Time
}

func New(s store.Store) *Drafts {
	return &Drafts{store: s, now: time.Now}
}

func key(name string) string {
	if name == "" {
		name = DefaultName
	}
	return store.KeyDraftPrefix + name
}

// Get loads a draft. It reports false when there is none.
func (d *Drafts) Get(ctx context.Context, name string) (*Draft, bool, error) {
	var out Draft
	found, err := store.GetJSON(ctx, d.store, key(name), &out)
	if err != nil || !found {
		return nil, false, err
	}
	if out.State.Template == nil {
		return nil, false, fmt.Errorf("draft %q has no template", name)
	}
	return &out, true, nil
}

// Set saves state under name, replacing any previous draft.
func (d *Drafts) Set(ctx context.Context, name string, state editor.State) error {
	if name == "" {
		name = DefaultName
	}
	return store.SetJSON(ctx, d.store, key(name), Draft{
		Name:    name,
		SavedAt: d.now().UTC(),
		State:   state,
	})
}

// Clear removes a draft. Clearing a missing draft is not an error.
func (d *Drafts) Clear(ctx context.Context, name string) error {
	return d.store.Delete(ctx, key(name))
}

// List returns the saved draft names, sorted.
func (d *Drafts) List(ctx context.Context) ([]string, error) {
	keys, err := d.store.List(ctx, store.KeyDraftPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = strings.TrimPrefix(k, store.KeyDraftPrefix)
	}
	return names, nil
}
