package dataset

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Filter is a compiled CEL predicate deciding whether a parsed input line
// becomes a record. Expressions see three variables:
//
//	label  double        the parsed label (0 without a label column)
//	fields list(string)  the raw fields of the line
//	line   int           the zero-based line number
//
// Example: `label >= 4.0 && size(fields) == 3`.
type Filter struct {
	expr string
	prg  cel.Program
}

// NewFilter compiles expr. The expression must evaluate to a bool.
func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("label", cel.DoubleType),
		cel.Variable("fields", cel.ListType(cel.StringType)),
		cel.Variable("line", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("filter env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("filter compile %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must return bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("filter program %q: %w", expr, err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// Keep evaluates the predicate for one line.
func (f *Filter) Keep(label float64, fields []string, line int) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{
		"label":  label,
		"fields": fields,
		"line":   int64(line),
	})
	if err != nil {
		return false, fmt.Errorf("filter eval %q: %w", f.expr, err)
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T", f.expr, out.Value())
	}
	return keep, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }
