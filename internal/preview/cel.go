// SPDX-License-Identifier: Apache-2.0

package preview

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/traits"
)

var wrapped = regexp.MustCompile(`^\s*\$\{\{\s*(.*?)\s*\}\}\s*$`)

var jsOperators = strings.NewReplacer("===", "==", "!==", "!=")

// Evaluator evaluates step conditions with CEL. Expressions may reference
// the wizard values as parameters.<name>.
type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("parameters", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Expression strips the ${{ }} wrapper and rewrites strict equality
// operators to their CEL form.
func Expression(cond string) string {
	if m := wrapped.FindStringSubmatch(cond); m != nil {
		cond = m[1]
	}
	return jsOperators.Replace(strings.TrimSpace(cond))
}

// Evaluate reports whether cond holds for values. Non-boolean results are
// judged by truthiness: empty strings, lists, maps, zero and null are false.
func (e *Evaluator) Evaluate(cond string, values map[string]any) (bool, error) {
	expr := Expression(cond)
	if expr == "" {
		return true, nil
	}
	switch expr {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	ast, issues := e.env.Parse(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("error parsing expression: %w", issues.Err())
	}
	checked, issues := e.env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("error type-checking expression: %w", issues.Err())
	}
	program, err := e.env.Program(checked)
	if err != nil {
		return false, fmt.Errorf("error compiling expression: %w", err)
	}

	if values == nil {
		values = map[string]any{}
	}
	result, _, err := program.Eval(map[string]any{"parameters": values})
	if err != nil {
		return false, fmt.Errorf("error evaluating expression: %w", err)
	}

	switch v := result.(type) {
	case types.Bool:
		return bool(v), nil
	case types.Null:
		return false, nil
	case types.Int:
		return v != 0, nil
	case types.Uint:
		return v != 0, nil
	case types.Double:
		return v != 0, nil
	case traits.Sizer:
		size, ok := v.Size().(types.Int)
		return ok && size > 0, nil
	}
	return false, fmt.Errorf("expression evaluated to unsupported type %s", result.Type().TypeName())
}
