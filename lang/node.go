package lang

import (
	"iter"
	"log/slog"
	"slices"
	"sort"
)

// Node is an entry of an [ObjectNode]: either a nested *ObjectNode or a
// leaf *PropertyNode.
type Node interface {
	Selector() Selector
	Parent() *ObjectNode
	Route() Route
}

// ObjectNode is a node of the cascading tree. It maps selectors to nested
// objects or properties; a key is always consistently one kind or the other.
type ObjectNode struct {
	parent   *ObjectNode
	sheet    *PropertySheet
	selector Selector
	entries  map[SelectorKey]Node
	aliases  map[string]*Alias
	metadata map[string]Value
	matrices []*Matrix
}

func newObjectNode(parent *ObjectNode, sel Selector) *ObjectNode {
	n := &ObjectNode{parent: parent, selector: sel}
	if parent != nil {
		n.sheet = parent.sheet
	}

	return n
}

// Parent returns the owning node, or nil at the top of a sheet.
func (n *ObjectNode) Parent() *ObjectNode { return n.parent }

// Selector returns the key this node was created under.
func (n *ObjectNode) Selector() Selector { return n.selector }

// Sheet returns the sheet the node was declared in.
func (n *ObjectNode) Sheet() *PropertySheet { return n.sheet }

// Root returns the root sheet that owns the whole tree.
func (n *ObjectNode) Root() *RootPropertySheet {
	if n.sheet == nil {
		return nil
	}

	return n.sheet.root
}

// Route returns the path from the sheet's top node to n.
func (n *ObjectNode) Route() Route {
	var route Route

	for node := n; node != nil && node.parent != nil; node = node.parent {
		route = append(route, node.selector)
	}

	slices.Reverse(route)

	return route
}

// Children returns the typed view of nested objects.
func (n *ObjectNode) Children() Children { return Children{n} }

// Properties returns the typed view of leaf properties.
func (n *ObjectNode) Properties() Properties { return Properties{n} }

// Aliases returns the aliases declared on n, creating the map on first use.
func (n *ObjectNode) Aliases() map[string]*Alias {
	if n.aliases == nil {
		n.aliases = make(map[string]*Alias)
	}

	return n.aliases
}

// Metadata returns the metadata attached to n, creating the map on first
// use. Nested metadata keys are flattened with dots.
func (n *ObjectNode) Metadata() map[string]Value {
	if n.metadata == nil {
		n.metadata = make(map[string]Value)
	}

	return n.metadata
}

// Matrices returns the matrix foreach declarations made on n.
func (n *ObjectNode) Matrices() []*Matrix { return n.matrices }

// Keys returns the selectors of all entries in sorted order.
func (n *ObjectNode) Keys() []Selector {
	keys := make([]Selector, 0, len(n.entries))
	for key := range n.entries {
		keys = append(keys, key.Selector())
	}

	slices.SortFunc(keys, Selector.Compare)

	return keys
}

// Len returns the number of entries.
func (n *ObjectNode) Len() int { return len(n.entries) }

// Entry returns the entry stored under sel, of either kind.
func (n *ObjectNode) Entry(sel Selector) (Node, bool) {
	e, ok := n.entries[sel.Key()]

	return e, ok
}

// Lookup walks route from n and returns the entry it addresses.
func (n *ObjectNode) Lookup(route Route) (Node, error) {
	var cur Node = n

	for i, sel := range route {
		obj, ok := cur.(*ObjectNode)
		if !ok {
			return nil, ErrTypeMismatch.With(
				slog.String("route", route[:i].String()),
				slog.String("want", "object"),
			)
		}

		if cur, ok = obj.Entry(sel); !ok {
			return nil, ErrRouteNotFound.With(
				slog.String("route", route[:i+1].String()),
			)
		}
	}

	return cur, nil
}

// LogValue implements slog.LogValuer.
func (n *ObjectNode) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("route", n.Route().String()),
		slog.Int("entries", len(n.entries)),
	)
}

func (n *ObjectNode) put(sel Selector, e Node) {
	if n.entries == nil {
		n.entries = make(map[SelectorKey]Node)
	}

	n.entries[sel.Key()] = e
}

func (n *ObjectNode) addMatrix(m *Matrix) { n.matrices = append(n.matrices, m) }

// entriesOf yields the entries of kind T in selector order.
func entriesOf[T Node](n *ObjectNode) iter.Seq2[Selector, T] {
	return func(yield func(Selector, T) bool) {
		for _, sel := range n.Keys() {
			if e, ok := n.entries[sel.Key()].(T); ok {
				if !yield(sel, e) {
					return
				}
			}
		}
	}
}

// Children is the typed view of an [ObjectNode]'s nested objects.
type Children struct{ node *ObjectNode }

// Has reports whether sel names a nested object.
func (c Children) Has(sel Selector) bool {
	_, ok := c.node.entries[sel.Key()].(*ObjectNode)

	return ok
}

// Get returns the nested object under sel. A property stored under sel
// yields [ErrTypeMismatch].
func (c Children) Get(sel Selector) (*ObjectNode, error) {
	e, ok := c.node.entries[sel.Key()]
	if !ok {
		return nil, ErrRouteNotFound.With(slog.String("selector", sel.String()))
	}

	obj, ok := e.(*ObjectNode)
	if !ok {
		return nil, ErrTypeMismatch.With(
			slog.String("selector", sel.String()),
			slog.String("want", "object"),
		)
	}

	return obj, nil
}

// GetOrCreate returns the nested object under sel, creating it if absent.
func (c Children) GetOrCreate(sel Selector) (*ObjectNode, error) {
	if _, ok := c.node.entries[sel.Key()]; ok {
		return c.Get(sel)
	}

	obj := newObjectNode(c.node, sel)
	c.node.put(sel, obj)

	return obj, nil
}

// All yields the nested objects in selector order.
func (c Children) All() iter.Seq2[Selector, *ObjectNode] {
	return entriesOf[*ObjectNode](c.node)
}

// Properties is the typed view of an [ObjectNode]'s leaf properties.
type Properties struct{ node *ObjectNode }

// Has reports whether sel names a property.
func (p Properties) Has(sel Selector) bool {
	_, ok := p.node.entries[sel.Key()].(*PropertyNode)

	return ok
}

// Get returns the property under sel. An object stored under sel yields
// [ErrTypeMismatch].
func (p Properties) Get(sel Selector) (*PropertyNode, error) {
	e, ok := p.node.entries[sel.Key()]
	if !ok {
		return nil, ErrRouteNotFound.With(slog.String("selector", sel.String()))
	}

	prop, ok := e.(*PropertyNode)
	if !ok {
		return nil, ErrTypeMismatch.With(
			slog.String("selector", sel.String()),
			slog.String("want", "property"),
		)
	}

	return prop, nil
}

// GetOrCreate returns the property under sel, creating it if absent.
func (p Properties) GetOrCreate(sel Selector) (*PropertyNode, error) {
	if _, ok := p.node.entries[sel.Key()]; ok {
		return p.Get(sel)
	}

	prop := &PropertyNode{parent: p.node, selector: sel}
	p.node.put(sel, prop)

	return prop, nil
}

// All yields the properties in selector order.
func (p Properties) All() iter.Seq2[Selector, *PropertyNode] {
	return entriesOf[*PropertyNode](p.node)
}

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
