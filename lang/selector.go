package lang

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/zeebo/xxh3"
)

// Wildcard is the name of the wrapper selector that holds the value of an
// object node itself.
const Wildcard = "*"

// Selector is a parsed name[parameter] key identifying a node.
//
// Two selectors are equal when their Name and Parameter match. A selector
// without a parameter is distinct from one with an empty parameter.
// AfterTheParameter holds selector text that directly follows a bracketed
// parameter (".bar" in foo[x].bar) and does not take part in equality.
type Selector struct {
	Name              string
	Parameter         string
	AfterTheParameter string
	Location          SourceLocation
	HasParameter      bool
}

// SelectorKey is the comparable identity of a [Selector].
type SelectorKey struct {
	Name         string
	Parameter    string
	HasParameter bool
}

// NewSelector returns a selector without a parameter.
func NewSelector(name string) Selector {
	return Selector{Name: name}
}

// NewParameterSelector returns a selector with the given parameter.
func NewParameterSelector(name, param string) Selector {
	return Selector{Name: name, Parameter: param, HasParameter: true}
}

// Key returns the identity of s for use as a map key.
func (s Selector) Key() SelectorKey {
	return SelectorKey{
		Name:         s.Name,
		Parameter:    s.Parameter,
		HasParameter: s.HasParameter,
	}
}

// Selector converts the key back into a selector.
func (k SelectorKey) Selector() Selector {
	return Selector{Name: k.Name, Parameter: k.Parameter, HasParameter: k.HasParameter}
}

// Hash returns a hash derived from the same fields as equality.
func (s Selector) Hash() uint64 {
	var sb strings.Builder

	sb.WriteString(s.Name)

	if s.HasParameter {
		sb.WriteByte(0)
		sb.WriteString(s.Parameter)
	}

	return xxh3.HashString(sb.String())
}

// Equal reports whether s and o identify the same key.
func (s Selector) Equal(o Selector) bool { return s.Key() == o.Key() }

// Compare orders selectors by name, then parameterless before parameterized,
// then by parameter.
func (s Selector) Compare(o Selector) int {
	if c := cmp.Compare(s.Name, o.Name); c != 0 {
		return c
	}

	if s.HasParameter != o.HasParameter {
		if s.HasParameter {
			return 1
		}

		return -1
	}

	return cmp.Compare(s.Parameter, o.Parameter)
}

// Less reports whether s orders before o.
func (s Selector) Less(o Selector) bool { return s.Compare(o) < 0 }

// IsCompound reports whether the name addresses a nested path.
func (s Selector) IsCompound() bool { return strings.Contains(s.Name, ".") }

// IsGlobal reports whether the name is anchored at the sheet's top node.
func (s Selector) IsGlobal() bool { return strings.HasPrefix(s.Name, "::") }

// IsWildcard reports whether s is the wrapper selector of a node's own value.
func (s Selector) IsWildcard() bool {
	return !s.HasParameter && (s.Name == "" || s.Name == Wildcard)
}

// String renders s in source form.
func (s Selector) String() string {
	if !s.HasParameter {
		return s.Name + s.AfterTheParameter
	}

	return s.Name + "[" + s.Parameter + "]" + s.AfterTheParameter
}

// LogValue implements [slog.LogValuer].
func (s Selector) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// Path expands s into the sequence of single-segment selectors it addresses.
// The parameter binds to the last segment of the name, and any text after the
// parameter continues the path.
func (s Selector) Path() Route {
	name := strings.TrimPrefix(s.Name, "::")

	var route Route

	if name != "" || s.HasParameter {
		segs := strings.Split(name, ".")
		for i, seg := range segs {
			sel := Selector{Name: seg, Location: s.Location}
			if i == len(segs)-1 && s.HasParameter {
				sel.Parameter, sel.HasParameter = s.Parameter, true
			}

			route = append(route, sel)
		}
	}

	after := strings.TrimPrefix(s.AfterTheParameter, ".")
	if after == "" {
		return route
	}

	var (
		seg  = Selector{Location: s.Location}
		open bool
	)

	flush := func() {
		if open {
			route = append(route, seg)
		}

		seg, open = Selector{Location: s.Location}, false
	}

	// Each parameter closes the segment it binds to.
	for _, tok := range Tokenize(after) {
		switch tok.Type {
		case Eof:
		case Dot:
			flush()
		case SelectorParameter:
			seg.Parameter, seg.HasParameter, open = tok.Data, true, true
			flush()
		default:
			seg.Name += tok.RawData
			open = true
		}
	}

	flush()

	return route
}

// valid reports whether every dotted segment of the name is non-empty.
func (s Selector) valid() bool {
	name := strings.TrimPrefix(s.Name, "::")
	if name == "" {
		return s.HasParameter || s.Name == ""
	}

	return !slices.Contains(strings.Split(name, "."), "")
}

// ParseSelector tokenizes and parses a standalone selector such as
// "foo[linux].bar".
func ParseSelector(text string) (Selector, error) {
	c := newCursor(Tokenize(text), "", text)

	sel, err := c.readSelector()
	if err != nil {
		return Selector{}, err
	}

	if tok := c.peek(); tok.Type != Eof {
		return Selector{}, c.fail(tok, CodeInvalidSelectorDeclaration,
			"unexpected text after selector")
	}

	return sel, nil
}

// readSelector reads a selector starting at the next significant token.
// Name tokens must be contiguous; a parameter may follow after whitespace,
// and text directly after the parameter becomes AfterTheParameter.
func (c *cursor) readSelector() (Selector, error) {
	first := c.peek()

	var (
		sel  Selector
		name strings.Builder
	)

	sel.Location = first.Location(c.filename)

	for {
		tok := c.peekRaw()

		switch {
		case tok.Type == Identifier, tok.Type == NumericLiteral, tok.Type == Dot:
			name.WriteString(tok.RawData)

		case tok.Type == StringLiteral:
			name.WriteString(tok.Data)

		case tok.Type == Unknown && tok.RawData == Wildcard:
			name.WriteString(Wildcard)

		case tok.Type == Colon && c.peekRawAt(1).Type == Colon:
			name.WriteString("::")
			c.advance()

		default:
			goto parameter
		}

		c.advance()
	}

parameter:
	sel.Name = name.String()

	if tok := c.peek(); tok.Type == SelectorParameter {
		if strings.ContainsAny(tok.Data, "\r\n") {
			return Selector{}, c.fail(tok, CodeInvalidSelectorDeclaration,
				"selector parameter must not span lines")
		}

		c.next()

		sel.Parameter, sel.HasParameter = tok.Data, true
		sel.AfterTheParameter = c.readAfterParameter()
	}

	if sel.Name == "" && !sel.HasParameter {
		return Selector{}, c.fail(c.peek(), CodeInvalidSelectorDeclaration,
			"expected selector")
	}

	if !sel.valid() {
		return Selector{}, c.fail(first, CodeInvalidSelectorDeclaration,
			"empty segment in selector "+sel.String())
	}

	return sel, nil
}

// readAfterParameter collects selector text immediately following a
// parameter, e.g. ".bar" or ".bar[y]".
func (c *cursor) readAfterParameter() string {
	var sb strings.Builder

	for {
		tok := c.peekRaw()

		switch tok.Type {
		case Identifier, NumericLiteral, Dot, SelectorParameter:
			sb.WriteString(tok.RawData)
			c.advance()

		default:
			return sb.String()
		}
	}
}

// Route is a path of selectors from a sheet's top node.
type Route []Selector

// ParseRoute parses a dotted route such as "foo[linux].bar".
func ParseRoute(text string) (Route, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sel, err := ParseSelector(text)
	if err != nil {
		return nil, err
	}

	return sel.Path(), nil
}

// String renders the route in dotted source form.
func (r Route) String() string {
	parts := make([]string, len(r))
	for i, sel := range r {
		parts[i] = sel.String()
	}

	return strings.Join(parts, ".")
}

// Parent returns the route without its last selector.
func (r Route) Parent() Route {
	if len(r) == 0 {
		return nil
	}

	return r[:len(r)-1]
}

// Last returns the final selector of the route.
func (r Route) Last() (Selector, bool) {
	if len(r) == 0 {
		return Selector{}, false
	}

	return r[len(r)-1], true
}

// Append returns a new route extended by sel.
func (r Route) Append(sel Selector) Route {
	out := make(Route, len(r), len(r)+1)
	copy(out, r)

	return append(out, sel)
}

// Equal reports whether both routes address the same keys.
func (r Route) Equal(o Route) bool {
	if len(r) != len(o) {
		return false
	}

	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}

	return true
}
