package view

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/psheet/lang"
)

// ToMap resolves every route of the view into nested maps keyed by
// selector. A property with one value maps to a string, otherwise to a list
// of strings. Where sheets disagree on whether a name is an object or a
// property, the higher precedence sheet wins.
func (v *View) ToMap(ctx context.Context) (map[string]any, error) {
	routes, err := v.Routes(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)

	for _, route := range routes {
		vals, err := v.Values(ctx, route)
		if err != nil {
			return nil, err
		}

		insert(out, route, leaf(vals))
	}

	return out, nil
}

// Decode resolves the view and stores it in the value pointed to by out,
// using YAML struct tags. Leaf values that parse as booleans or numbers are
// decoded as such.
func (v *View) Decode(ctx context.Context, out any) error {
	m, err := v.ToMap(ctx)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(native(m))
	if err != nil {
		return ErrDecode.Wrap(err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return ErrDecode.Wrap(err).With(slog.String("type", fmt.Sprintf("%T", out)))
	}

	return nil
}

func leaf(vals []string) any {
	if len(vals) == 1 {
		return vals[0]
	}

	items := make([]any, len(vals))
	for i, s := range vals {
		items[i] = s
	}

	return items
}

// insert stores val at route in m, creating intermediate maps. It does not
// overwrite anything already present.
func insert(m map[string]any, route lang.Route, val any) {
	for i, sel := range route {
		key := sel.String()

		if i == len(route)-1 {
			if _, ok := m[key]; !ok {
				m[key] = val
			}

			return
		}

		next, ok := m[key]
		if !ok {
			child := make(map[string]any)
			m[key] = child
			m = child

			continue
		}

		child, ok := next.(map[string]any)
		if !ok {
			return
		}

		m = child
	}
}

// native converts leaf strings into booleans and numbers where they parse.
func native(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = native(e)
		}

		return out

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = native(e)
		}

		return out

	case string:
		switch v {
		case "true":
			return true
		case "false":
			return false
		}

		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}

		if f, err := strconv.ParseFloat(v, 64); err == nil && !strings.ContainsAny(v, "iInNxXpP_") {
			return f
		}

		return v
	}

	return v
}

