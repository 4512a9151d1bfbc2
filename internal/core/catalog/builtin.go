// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"fmt"

	"github.com/kusari-oss/stencil/internal/defaults"
)

// BuiltinActions returns the built-in action table.
func BuiltinActions() ([]ActionDefinition, error) {
	defs, err := Parse(defaults.BuiltinActions(), "application/yaml")
	if err != nil {
		return nil, fmt.Errorf("error parsing built-in actions: %w", err)
	}
	return defs, nil
}

// Builtin is the lowest-precedence provider.
type Builtin struct{}

func NewBuiltin() *Builtin { return &Builtin{} }

func (*Builtin) Name() string { return "builtin" }

func (*Builtin) Actions(context.Context) ([]ActionDefinition, error) {
	return BuiltinActions()
}
