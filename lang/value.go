package lang

import (
	"strings"
)

// ValueContext resolves deferred values against a live environment.
//
// Implementations are provided by the view layer. The parser never evaluates
// values; it only records them.
type ValueContext interface {
	// ResolveMacros substitutes every ${...} occurrence in text until a fixed
	// point is reached.
	ResolveMacros(text string, perm *Permutation) (string, error)
	// MacroValues returns all values a macro name expands to.
	MacroValues(name string, perm *Permutation) ([]string, error)
	// MacroValue returns the single (scalar) value of a macro name.
	MacroValue(name string, perm *Permutation) (string, error)
	// Collection returns the items of a named collection. Unknown names yield
	// a single empty item.
	Collection(name string, perm *Permutation) []any
	// Instruction evaluates an embedded instruction body.
	Instruction(body string, perm *Permutation) ([]string, error)
}

// Value is an unevaluated right-hand side.
type Value interface {
	// Values evaluates the value in ctx.
	Values(ctx ValueContext, perm *Permutation) ([]string, error)
	// Location returns where the value was declared.
	Location() SourceLocation
	// String renders the value in source form.
	String() string
}

// ScalarSeparator joins the items of a collection when it is read as a scalar.
const ScalarSeparator = ";"

// Scalar is literal text that may contain ${...} macros.
type Scalar struct {
	Text string
	Loc  SourceLocation
}

// Values resolves the macros in s. Text consisting of exactly one macro
// expands to every value of that macro, so collections can be copied by
// reference.
func (s *Scalar) Values(ctx ValueContext, perm *Permutation) ([]string, error) {
	if name, ok := soleMacro(s.Text); ok {
		return ctx.MacroValues(name, perm)
	}

	text, err := ctx.ResolveMacros(s.Text, perm)
	if err != nil {
		return nil, err
	}

	return []string{text}, nil
}

// Location implements [Value].
func (s *Scalar) Location() SourceLocation { return s.Loc }

// String implements [Value].
func (s *Scalar) String() string { return quote(s.Text) }

// Collection is a braced list of values with optional metadata.
type Collection struct {
	Items    []Value
	Metadata map[string]Value
	Loc      SourceLocation
}

// Values concatenates the values of every item in order.
func (c *Collection) Values(ctx ValueContext, perm *Permutation) ([]string, error) {
	out := make([]string, 0, len(c.Items))

	for _, item := range c.Items {
		vals, err := item.Values(ctx, perm)
		if err != nil {
			return nil, err
		}

		out = append(out, vals...)
	}

	return out, nil
}

// Location implements [Value].
func (c *Collection) Location() SourceLocation { return c.Loc }

// String implements [Value].
func (c *Collection) String() string {
	parts := make([]string, 0, len(c.Items)+len(c.Metadata))

	for _, item := range c.Items {
		parts = append(parts, item.String())
	}

	for _, key := range sortedKeys(c.Metadata) {
		parts = append(parts, "#"+key+" = "+c.Metadata[key].String())
	}

	if len(parts) == 0 {
		return "{}"
	}

	return "{ " + strings.Join(parts, ", ") + " }"
}

// Instruction is an opaque embedded instruction body.
type Instruction struct {
	Body string
	Loc  SourceLocation
}

// Values hands the body to the context's instruction evaluator.
func (i *Instruction) Values(ctx ValueContext, perm *Permutation) ([]string, error) {
	return ctx.Instruction(i.Body, perm)
}

// Location implements [Value].
func (i *Instruction) Location() SourceLocation { return i.Loc }

// String implements [Value].
func (i *Instruction) String() string {
	anchor := instructionAnchor(i.Body)

	return "<" + anchor + " " + i.Body + " " + anchor + ">"
}

// instructionAnchor picks an anchor whose closing form does not occur in body.
func instructionAnchor(body string) string {
	for _, anchor := range []string{"%", "%%", "@", "|", "!", "%%%"} {
		if !strings.Contains(body, anchor+">") {
			return anchor
		}
	}

	return strings.Repeat("%", len(body)+1)
}

// Iterator maps Template over every value of Source, binding each source
// value to "each". Iterators chain left to right: a => b => c applies c to
// the results of a => b.
type Iterator struct {
	Source   Value
	Template Value
	Loc      SourceLocation
}

// Values evaluates the template once per source value.
func (it *Iterator) Values(ctx ValueContext, perm *Permutation) ([]string, error) {
	src, err := it.Source.Values(ctx, perm)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(src))

	for _, item := range src {
		vals, err := it.Template.Values(ctx, perm.WithEach(item))
		if err != nil {
			return nil, err
		}

		out = append(out, vals...)
	}

	return out, nil
}

// Location implements [Value].
func (it *Iterator) Location() SourceLocation { return it.Loc }

// String implements [Value].
func (it *Iterator) String() string {
	return it.Source.String() + " => " + it.Template.String()
}

// Permutation is one combination of items drawn from named collections,
// bound while evaluating a matrix entry or an iterator template.
type Permutation struct {
	Names []string
	Items []any
	each  any
	// hasEach reports whether an iterator bound each explicitly.
	hasEach bool
}

// NewPermutation binds items to the collection names in order.
func NewPermutation(names []string, items []any) *Permutation {
	return &Permutation{Names: names, Items: items}
}

// WithEach returns a copy of p with each bound to item.
func (p *Permutation) WithEach(item any) *Permutation {
	q := &Permutation{each: item, hasEach: true}
	if p != nil {
		q.Names, q.Items = p.Names, p.Items
	}

	return q
}

// Each returns the item bound to "each": the iterator item when inside an
// iterator template, otherwise the whole tuple when more than one collection
// is bound, otherwise the sole item.
func (p *Permutation) Each() (any, bool) {
	switch {
	case p == nil:
		return nil, false
	case p.hasEach:
		return p.each, true
	case len(p.Items) == 1:
		return p.Items[0], true
	case len(p.Items) > 1:
		return p.Items, true
	default:
		return nil, false
	}
}

// Item returns the i'th tuple item.
func (p *Permutation) Item(i int) (any, bool) {
	if p == nil || i < 0 || i >= len(p.Items) {
		return nil, false
	}

	return p.Items[i], true
}

// Named returns the item drawn from the named collection.
func (p *Permutation) Named(name string) (any, bool) {
	if p == nil {
		return nil, false
	}

	for i, n := range p.Names {
		if n == name && i < len(p.Items) {
			return p.Items[i], true
		}
	}

	return nil, false
}

// Len returns the number of bound collection items.
func (p *Permutation) Len() int {
	if p == nil {
		return 0
	}

	return len(p.Items)
}

// soleMacro reports whether text is exactly one ${name} expression.
func soleMacro(text string) (string, bool) {
	if !strings.HasPrefix(text, "${") || !strings.HasSuffix(text, "}") {
		return "", false
	}

	body := text[2 : len(text)-1]
	if strings.ContainsAny(body, "${}") {
		return "", false
	}

	return strings.TrimSpace(body), true
}

// quote renders text as a string literal in source form.
func quote(text string) string {
	var sb strings.Builder

	sb.WriteByte('"')

	for _, r := range text {
		switch r {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteRune(r)
		}
	}

	sb.WriteByte('"')

	return sb.String()
}
