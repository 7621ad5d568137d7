package lang

import "log/slog"

// Alias is a named redirect to a selector, declared with @alias.
type Alias struct {
	Name      string
	Reference Selector
	// Used is set the first time the alias substitutes a selector.
	Used bool
	// Priority is the root's index value at first use.
	Priority int
}

// Use marks the alias as used, recording its priority from root on the first
// call only.
func (a *Alias) Use(root *RootPropertySheet) {
	if a.Used {
		return
	}

	a.Used = true

	if root != nil {
		a.Priority = root.NextIndexValue()
	}
}

// Substitute replaces the first segment of route with the alias reference.
// A parameter on the replaced segment carries over to the last segment of
// the reference when the reference has none.
func (a *Alias) Substitute(route Route) Route {
	if len(route) == 0 {
		return route
	}

	ref := a.Reference.Path()
	if len(ref) == 0 {
		return route
	}

	if head := route[0]; head.HasParameter {
		last := &ref[len(ref)-1]
		if !last.HasParameter {
			last.Parameter, last.HasParameter = head.Parameter, true
		}
	}

	out := make(Route, 0, len(ref)+len(route)-1)
	out = append(out, ref...)

	return append(out, route[1:]...)
}

// LogValue implements slog.LogValuer.
func (a *Alias) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", a.Name),
		slog.String("reference", a.Reference.String()),
		slog.Bool("used", a.Used),
	)
}

// lookupAlias searches n and its ancestors, then the top nodes of the
// sheets imported by n's sheet, for an alias called name.
func lookupAlias(n *ObjectNode, name string) (*Alias, bool) {
	for node := n; node != nil; node = node.parent {
		if a, ok := node.aliases[name]; ok {
			return a, true
		}
	}

	if n.sheet == nil {
		return nil, false
	}

	for sheet := range n.sheet.Cascade() {
		if a, ok := sheet.aliases[name]; ok {
			return a, true
		}
	}

	return nil, false
}
