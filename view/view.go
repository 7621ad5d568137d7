package view

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/psheet/lang"
	"github.com/ardnew/psheet/log"
)

// MaxSuggestions limits the number of routes returned by [View.Suggest].
var MaxSuggestions = 5

// View binds a parsed root sheet to a [Context] and resolves property
// values on demand. Results are memoized per route and invalidated when any
// contributing property gains a change, including properties read
// indirectly through ${a.b} macros or matrix collections.
//
// A View is not safe for concurrent use.
type View struct {
	root   *lang.RootPropertySheet
	ctx    *Context
	logger log.Logger

	memo   map[string]memoEntry
	active map[string]bool
	scope  []lang.Route
	reads  [][]dependency
}

// dependency is a property read while resolving a route, at the version
// that was read.
type dependency struct {
	prop    *lang.PropertyNode
	version uint64
}

// binding is a property found along a route, with the permutation bound by
// any generated matrix entries on the way.
type binding struct {
	prop *lang.PropertyNode
	perm *lang.Permutation
}

type memoEntry struct {
	props  []*lang.PropertyNode
	deps   []dependency
	values []string
}

// fresh reports whether the entry was computed from exactly these bindings
// and every property it read is still at the version read.
func (e memoEntry) fresh(bs []binding) bool {
	if len(bs) != len(e.props) {
		return false
	}

	for i, b := range bs {
		if b.prop != e.props[i] {
			return false
		}
	}

	for _, d := range e.deps {
		if d.prop.Version() != d.version {
			return false
		}
	}

	return true
}

// record adds deps to the reads of the route being resolved.
func (v *View) record(deps ...dependency) {
	if n := len(v.reads); n > 0 {
		v.reads[n-1] = append(v.reads[n-1], deps...)
	}
}

// New returns a view of root. The options configure the view's [Context];
// the tree itself answers macros that no responder or permutation knows,
// so ${a.b} resolves to the property at route a.b.
func New(root *lang.RootPropertySheet, opts ...Option) *View {
	v := &View{
		root:   root,
		memo:   make(map[string]memoEntry),
		active: make(map[string]bool),
	}

	v.ctx = NewContext(opts...)
	v.ctx.fallback = v.treeMacro
	v.ctx.collectionsOf = v.treeCollection
	v.logger = v.ctx.logger

	return v
}

// Root returns the viewed root sheet.
func (v *View) Root() *lang.RootPropertySheet { return v.root }

// Context returns the context values are resolved in.
func (v *View) Context() *Context { return v.ctx }

// Values resolves the property at route across the cascade. The changes of
// every sheet defining the route are replayed, lowest precedence first.
// A route naming an object resolves to the object's own "*" property.
func (v *View) Values(ctx context.Context, route lang.Route) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vals, err := v.values(route)
	if err != nil {
		return nil, err
	}

	v.logger.TraceContext(ctx, "resolved",
		slog.String("route", route.String()),
		slog.Int("values", len(vals)))

	return slices.Clone(vals), nil
}

// Value resolves the property at route as a scalar.
func (v *View) Value(ctx context.Context, route lang.Route) (string, error) {
	vals, err := v.Values(ctx, route)
	if err != nil {
		return "", err
	}

	return strings.Join(vals, lang.ScalarSeparator), nil
}

// Get parses route text and resolves it.
func (v *View) Get(ctx context.Context, route string) ([]string, error) {
	r, err := lang.ParseRoute(route)
	if err != nil {
		return nil, err
	}

	return v.Values(ctx, r)
}

// Entries returns the routes of the generated matrix entries declared on
// the object at route, in product order.
func (v *View) Entries(ctx context.Context, route lang.Route) ([]lang.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		out  []lang.Route
		seen = make(map[string]bool)
	)

	for sheet := range v.root.Cascade() {
		n, perm, ok := v.bind(sheet.ObjectNode, route, nil)
		if !ok {
			continue
		}

		obj, ok := n.(*lang.ObjectNode)
		if !ok {
			continue
		}

		for _, m := range obj.Matrices() {
			for i := range Count(v.lists(m, perm)) {
				r := route.Append(m.EntrySelector(i))
				if key := r.String(); !seen[key] {
					seen[key] = true
					out = append(out, r)
				}
			}
		}
	}

	return out, nil
}

// Routes enumerates the routes of every property in the cascade, local
// sheet first, generated matrix entries included. Each route is listed once.
func (v *View) Routes(ctx context.Context) ([]lang.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := &walker{view: v, seen: make(map[string]bool)}

	for sheet := range v.root.Cascade() {
		w.walk(sheet.ObjectNode, nil, nil)
	}

	return w.routes, nil
}

// Suggest returns the known routes that best fuzzy-match route.
func (v *View) Suggest(route string) []string {
	routes, err := v.Routes(context.Background())
	if err != nil {
		return nil
	}

	names := make([]string, len(routes))
	for i, r := range routes {
		names[i] = r.String()
	}

	matches := fuzzy.Find(route, names)

	out := make([]string, 0, min(len(matches), MaxSuggestions))
	for _, m := range matches {
		if len(out) == MaxSuggestions {
			break
		}

		out = append(out, m.Str)
	}

	return out
}

// walker collects property routes.
type walker struct {
	view   *View
	seen   map[string]bool
	routes []lang.Route
}

func (w *walker) walk(obj *lang.ObjectNode, prefix lang.Route, perm *lang.Permutation) {
	for _, sel := range obj.Keys() {
		e, _ := obj.Entry(sel)

		switch e := e.(type) {
		case *lang.ObjectNode:
			w.walk(e, prefix.Append(sel), perm)

		case *lang.PropertyNode:
			r := prefix.Append(sel)
			if key := r.String(); !w.seen[key] {
				w.seen[key] = true
				w.routes = append(w.routes, r)
			}
		}
	}

	for _, m := range obj.Matrices() {
		for i, tuple := range Product(w.view.lists(m, perm)) {
			w.walk(m.Body, prefix.Append(m.EntrySelector(i)), extend(perm, m.Collections, tuple))
		}
	}
}

// values resolves route, consulting the memo. Every property read, directly
// or through nested resolution, is recorded for the enclosing route too.
func (v *View) values(route lang.Route) ([]string, error) {
	v.reads = append(v.reads, nil)

	defer func() {
		n := len(v.reads) - 1
		reads := v.reads[n]
		v.reads = v.reads[:n]
		v.record(reads...)
	}()

	bindings, err := v.resolve(route)
	if err != nil {
		return nil, err
	}

	key := route.String()

	if e, ok := v.memo[key]; ok && e.fresh(bindings) {
		v.record(e.deps...)

		return e.values, nil
	}

	if v.active[key] {
		return nil, ErrMacroCycle.With(slog.String("route", key))
	}

	v.active[key] = true
	v.scope = append(v.scope, route.Parent())

	defer func() {
		delete(v.active, key)
		v.scope = v.scope[:len(v.scope)-1]
	}()

	var acc []string

	for i := len(bindings) - 1; i >= 0; i-- {
		b := bindings[i]
		if acc, err = b.prop.Replay(acc, v.ctx, b.perm); err != nil {
			return nil, err
		}
	}

	entry := memoEntry{
		props:  make([]*lang.PropertyNode, len(bindings)),
		values: acc,
	}

	for i, b := range bindings {
		entry.props[i] = b.prop
		v.record(dependency{prop: b.prop, version: b.prop.Version()})
	}

	entry.deps = slices.Clone(v.reads[len(v.reads)-1])
	v.memo[key] = entry

	return acc, nil
}

// resolve finds the properties route names in each sheet of the cascade,
// highest precedence first.
func (v *View) resolve(route lang.Route) ([]binding, error) {
	var (
		out   []binding
		found bool
	)

	wildcard := lang.NewSelector(lang.Wildcard)

	for sheet := range v.root.Cascade() {
		n, perm, ok := v.bind(sheet.ObjectNode, route, nil)
		if !ok {
			continue
		}

		found = true

		switch n := n.(type) {
		case *lang.PropertyNode:
			out = append(out, binding{prop: n, perm: perm})

		case *lang.ObjectNode:
			if p, err := n.Properties().Get(wildcard); err == nil {
				out = append(out, binding{prop: p, perm: perm})
			}
		}
	}

	switch {
	case len(out) > 0:
		return out, nil
	case found:
		return nil, ErrNotAProperty.With(slog.String("route", route.String()))
	default:
		return nil, lang.ErrRouteNotFound.With(slog.String("route", route.String()))
	}
}

// bind walks route from node. A selector naming a generated matrix entry
// descends into the matrix body and binds that entry's combination.
func (v *View) bind(
	node *lang.ObjectNode,
	route lang.Route,
	perm *lang.Permutation,
) (lang.Node, *lang.Permutation, bool) {
	var cur lang.Node = node

	for _, sel := range route {
		obj, ok := cur.(*lang.ObjectNode)
		if !ok {
			return nil, nil, false
		}

		if e, ok := obj.Entry(sel); ok {
			cur = e

			continue
		}

		m, n, ok := matrixEntry(obj, sel)
		if !ok {
			return nil, nil, false
		}

		tuple, ok := Combination(v.lists(m, perm), n)
		if !ok {
			return nil, nil, false
		}

		perm = extend(perm, m.Collections, tuple)
		cur = m.Body
	}

	return cur, perm, true
}

// lists evaluates the collections of m.
func (v *View) lists(m *lang.Matrix, perm *lang.Permutation) [][]any {
	lists := make([][]any, len(m.Collections))
	for i, name := range m.Collections {
		lists[i] = v.ctx.Collection(name, perm)
	}

	return lists
}

// matrixEntry parses a generated entry selector "__<index>_<n>" and finds
// the matrix it belongs to.
func matrixEntry(obj *lang.ObjectNode, sel lang.Selector) (*lang.Matrix, int, bool) {
	if sel.HasParameter {
		return nil, 0, false
	}

	rest, ok := strings.CutPrefix(sel.Name, "__")
	if !ok {
		return nil, 0, false
	}

	is, ns, ok := strings.Cut(rest, "_")
	if !ok {
		return nil, 0, false
	}

	index, err := strconv.Atoi(is)
	if err != nil {
		return nil, 0, false
	}

	n, err := strconv.Atoi(ns)
	if err != nil {
		return nil, 0, false
	}

	for _, m := range obj.Matrices() {
		if m.Index == index {
			return m, n, true
		}
	}

	return nil, 0, false
}

// extend returns perm with additional named items bound.
func extend(perm *lang.Permutation, names []string, items []any) *lang.Permutation {
	var (
		allNames = slices.Clone(names)
		allItems = slices.Clone(items)
	)

	if perm != nil {
		allNames = append(slices.Clone(perm.Names), names...)
		allItems = append(slices.Clone(perm.Items), items...)
	}

	return lang.NewPermutation(allNames, allItems)
}

// treeMacro answers a macro name with the property it routes to. The route
// is tried relative to the object being evaluated and each of its
// ancestors before the top of the sheet.
func (v *View) treeMacro(name string, _ *lang.Permutation) ([]string, bool, error) {
	route, err := lang.ParseRoute(name)
	if err != nil || len(route) == 0 {
		return nil, false, nil
	}

	var scope lang.Route
	if len(v.scope) > 0 {
		scope = v.scope[len(v.scope)-1]
	}

	for i := len(scope); i >= 0; i-- {
		r := append(slices.Clone(scope[:i]), route...)

		if _, err := v.resolve(r); err != nil {
			continue
		}

		vals, err := v.values(r)

		return vals, true, err
	}

	return nil, false, nil
}

// treeCollection answers a collection name with the values of the property
// it routes to.
func (v *View) treeCollection(name string) ([]any, bool) {
	route, err := lang.ParseRoute(name)
	if err != nil || len(route) == 0 {
		return nil, false
	}

	vals, err := v.values(route)
	if err != nil {
		return nil, false
	}

	items := make([]any, len(vals))
	for i, s := range vals {
		items[i] = s
	}

	return items, true
}
