package view

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ardnew/psheet/lang"
)

// FieldAccessible is implemented by collection items that expose named
// fields to ${each.path} macros.
type FieldAccessible interface {
	Field(path string) (any, bool)
}

// Field evaluates the dotted path against v. Items implementing
// [FieldAccessible] answer for the whole path; maps are walked one segment
// at a time; anything else is handed to an expr-lang member expression.
func Field(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}

	if fa, ok := v.(FieldAccessible); ok {
		return fa.Field(path)
	}

	head, rest, _ := strings.Cut(path, ".")

	switch m := v.(type) {
	case map[string]any:
		next, ok := m[head]
		if !ok {
			return nil, false
		}

		return Field(next, rest)

	case map[string]string:
		next, ok := m[head]
		if !ok || rest != "" {
			return nil, false
		}

		return next, true

	case nil, string:
		return nil, false
	}

	out, err := expr.Eval("it."+path, map[string]any{"it": v})
	if err != nil {
		return nil, false
	}

	return out, true
}

// stringify converts an evaluated value into macro text.
func stringify(v any) []string {
	switch v := v.(type) {
	case nil:
		return []string{""}
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, strings.Join(stringify(item), lang.ScalarSeparator))
		}

		return out
	case fmt.Stringer:
		return []string{v.String()}
	default:
		return []string{fmt.Sprint(v)}
	}
}
