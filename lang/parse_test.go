package lang

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
)

// literalContext answers ${name} from a fixed map and ${each} from the
// permutation. Instructions evaluate to their own body in angle brackets.
type literalContext map[string][]string

func (c literalContext) ResolveMacros(text string, perm *Permutation) (string, error) {
	for name, vals := range c {
		text = strings.ReplaceAll(text, "${"+name+"}", strings.Join(vals, ScalarSeparator))
	}

	if each, ok := perm.Each(); ok {
		text = strings.ReplaceAll(text, "${each}", fmt.Sprint(each))
	}

	return text, nil
}

func (c literalContext) MacroValues(name string, perm *Permutation) ([]string, error) {
	if vals, ok := c[name]; ok {
		return vals, nil
	}

	if each, ok := perm.Each(); ok && name == "each" {
		return []string{fmt.Sprint(each)}, nil
	}

	return []string{"${" + name + "}"}, nil
}

func (c literalContext) MacroValue(name string, perm *Permutation) (string, error) {
	vals, err := c.MacroValues(name, perm)

	return strings.Join(vals, ScalarSeparator), err
}

func (c literalContext) Collection(string, *Permutation) []any { return []any{""} }

func (c literalContext) Instruction(body string, _ *Permutation) ([]string, error) {
	return []string{"<" + body + ">"}, nil
}

func mustParse(t *testing.T, input string, opts ...Option) *RootPropertySheet {
	t.Helper()

	root, err := ParseString(context.Background(), input, "", opts...)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	return root
}

func propertyAt(t *testing.T, node *ObjectNode, route string) *PropertyNode {
	t.Helper()

	r, err := ParseRoute(route)
	if err != nil {
		t.Fatalf("ParseRoute(%q): %v", route, err)
	}

	e, err := node.Lookup(r)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", route, err)
	}

	prop, ok := e.(*PropertyNode)
	if !ok {
		t.Fatalf("Lookup(%q) = %T, want *PropertyNode", route, e)
	}

	return prop
}

func TestParseString_Scenarios(t *testing.T) {
	t.Run("object with collection assignment", func(t *testing.T) {
		root := mustParse(t, `foo { bar : "x"; }`)

		foo, err := root.Children().Get(NewSelector("foo"))
		if err != nil {
			t.Fatalf("foo: %v", err)
		}

		bar, err := foo.Properties().Get(NewSelector("bar"))
		if err != nil {
			t.Fatalf("bar: %v", err)
		}

		changes := bar.Changes()
		if len(changes) != 1 || changes[0].Operation != CollectionAssignment {
			t.Fatalf("changes = %v, want one CollectionAssignment", changes)
		}

		if s, ok := changes[0].Value.(*Scalar); !ok || s.Text != "x" {
			t.Errorf("value = %v, want scalar x", changes[0].Value)
		}

		got, err := bar.Value(literalContext{}, nil)
		if err != nil || got != "x" {
			t.Errorf("Value() = %q, %v; want x", got, err)
		}
	})

	t.Run("parameterized selector", func(t *testing.T) {
		root := mustParse(t, `foo[linux] { bar = "y"; } foo { bar = "z"; }`)

		if root.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", root.Len())
		}

		linux, err := root.Children().Get(NewParameterSelector("foo", "linux"))
		if err != nil {
			t.Fatalf("foo[linux]: %v", err)
		}

		if sel := linux.Selector(); sel.Name != "foo" || sel.Parameter != "linux" || !sel.HasParameter {
			t.Errorf("selector = %+v", sel)
		}

		plain, err := root.Children().Get(NewSelector("foo"))
		if err != nil {
			t.Fatalf("foo: %v", err)
		}

		if plain == linux {
			t.Error("foo and foo[linux] share a node")
		}

		if got, _ := propertyAt(t, root.ObjectNode, "foo[linux].bar").Value(literalContext{}, nil); got != "y" {
			t.Errorf("foo[linux].bar = %q, want y", got)
		}
	})
}

func TestParse_Values(t *testing.T) {
	ctx := literalContext{"x": {"p", "q"}}

	tests := []struct {
		name  string
		input string
		route string
		want  []string
	}{
		{"assignment", `a = 1;`, "a", []string{"1"}},
		{"compound selector", `a.b.c = 1;`, "a.b.c", []string{"1"}},
		{"nested blocks", `a { b { c = 1 } }`, "a.b.c", []string{"1"}},
		{"collection list", `x : a, b, c;`, "x", []string{"a", "b", "c"}},
		{"append", `x : a; x += b, c;`, "x", []string{"a", "b", "c"}},
		{"reassign", `x : a, b; x = c;`, "x", []string{"c"}},
		{"comma ends assignment", `x = a, y = b;`, "y", []string{"b"}},
		{"comma ends list before statement", `x : a, y = b`, "x", []string{"a"}},
		{"braced collection in list", `x : { a, b }, c;`, "x", []string{"a", "b", "c"}},
		{"whitespace kept", `msg = hello   world;`, "msg", []string{"hello   world"}},
		{"comment dropped", `msg = hello /* c */ world;`, "msg", []string{"hello  world"}},
		{"path text", `path = a/b/c;`, "path", []string{"a/b/c"}},
		{"version text", `v = 1.2.3;`, "v", []string{"1.2.3"}},
		{"parameter text", `p = x[y];`, "p", []string{"x[y]"}},
		{"global selector", `a { ::g = 1; }`, "g", []string{"1"}},
		{"trailing selector path", `a[x].b = 1;`, "a[x].b", []string{"1"}},
		{"iterator", `c : { 1, 2 } => ${each}0;`, "c", []string{"10", "20"}},
		{"chained iterator", `c : { 1, 2 } => ${each}0 => ${each}!;`, "c", []string{"10!", "20!"}},
		{"assignment joins macro values", `c = ${x};`, "c", []string{"p;q"}},
		{"collection copies macro values", `c : ${x};`, "c", []string{"p", "q"}},
		{"unknown macro kept", `c = ${nope};`, "c", []string{"${nope}"}},
		{"instruction value", `v = <% 1 + 2 %>;`, "v", []string{"<1 + 2>"}},
		{"instruction binds wildcard", `v <% 1 %>;`, "v.*", []string{"<1>"}},
		{"colon equals instruction", `v := <% 1 %>;`, "v.*", []string{"<1>"}},
		{"colon equals text", `v := text;`, "v", []string{"text"}},
		{"colon equals object", `v := { w = 1; }`, "v.w", []string{"1"}},
		{"empty collection", `e : {};`, "e", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.input)

			got, err := propertyAt(t, root.ObjectNode, tt.route).Values(ctx, nil)
			if err != nil {
				t.Fatalf("Values(): %v", err)
			}

			if !slices.Equal(got, tt.want) {
				t.Errorf("Values() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unterminated block", `foo {`, ErrUnexpectedEnd},
		{"missing rvalue", `a = ;`, ErrMissingRValue},
		{"object over property", `a = 1; a { }`, ErrChildExists},
		{"property over object", `a { } a = 1;`, ErrChildExists},
		{"unmatched close", `}`, ErrTokenNotExpected},
		{"unknown directive", `@foo x;`, ErrTokenNotExpected},
		{"missing operator", `a b;`, ErrTokenNotExpected},
		{"close after statement", `a = "x" }`, ErrTokenNotExpected},
		{"unterminated collection", `a : { 1, 2`, ErrUnexpectedEnd},
		{"empty matrix", `() => x = 1;`, ErrMissingRValue},
		{"matrix without arrow", `(a) x`, ErrTokenNotExpected},
		{"matrix without statement", `(a) =>`, ErrMissingRValue},
		{"empty segment", `a..b = 1;`, ErrInvalidSelectorDeclaration},
		{"control character import", `@import "a\0b";`, ErrInvalidImport},
		{"missing alias name", `@alias = x;`, ErrTokenNotExpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := ParseString(context.Background(), tt.input, "")
			if err == nil {
				t.Fatalf("expected error, got tree %v", root)
			}

			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("error %T is not a *ParseError", err)
			}
		})
	}
}

func TestParse_UnterminatedLocation(t *testing.T) {
	_, err := ParseString(context.Background(), "foo {\n  bar = 1;\n", "test.props")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}

	if pe.Code != CodeUnexpectedEnd {
		t.Errorf("Code = %v, want UnexpectedEnd", pe.Code)
	}

	if loc := pe.Location(); loc.Filename != "test.props" || loc.Row != 3 || loc.Column != 1 {
		t.Errorf("Location() = %v, want test.props:3:1", loc)
	}

	if !strings.Contains(pe.Message, "test.props:1:5") {
		t.Errorf("Message = %q, want the opening brace location", pe.Message)
	}
}

func TestParseError_Error(t *testing.T) {
	_, err := ParseString(context.Background(), "a = ;", "t.props")
	if err == nil {
		t.Fatal("expected error")
	}

	want := "t.props:1:5: MissingRValue: expected value before \";\"\n" +
		"  1 | a = ;\n" +
		"          ^"

	if got := err.Error(); got != want {
		t.Errorf("Error() =\n%s\nwant\n%s", got, want)
	}
}

func TestParse_MaxDepth(t *testing.T) {
	nest := func(n int) string {
		return strings.Repeat("x{", n) + strings.Repeat("}", n)
	}

	if _, err := ParseString(context.Background(), nest(DefaultMaxDepth), ""); err != nil {
		t.Errorf("depth %d: unexpected error %v", DefaultMaxDepth, err)
	}

	_, err := ParseString(context.Background(), nest(DefaultMaxDepth+1), "")
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("depth %d: error = %v, want ErrMaxDepthExceeded", DefaultMaxDepth+1, err)
	}

	_, err = ParseString(context.Background(), nest(4), "", WithMaxDepth(3))
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("WithMaxDepth(3): error = %v, want ErrMaxDepthExceeded", err)
	}

	_, err = ParseString(context.Background(), `a : {{{ 1 }}};`, "", WithMaxDepth(2))
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("nested collection: error = %v, want ErrMaxDepthExceeded", err)
	}
}

func TestParse_AnonymousBlocks(t *testing.T) {
	root := mustParse(t, `{ a = 1; } { b = 2; }`)

	var keys []string
	for _, sel := range root.Keys() {
		keys = append(keys, sel.String())
	}

	if want := []string{"__1", "__2"}; !slices.Equal(keys, want) {
		t.Errorf("Keys() = %q, want %q", keys, want)
	}

	propertyAt(t, root.ObjectNode, "__2.b")

	if root.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() = %d, want 2", root.CurrentIndex())
	}
}

func TestParse_Alias(t *testing.T) {
	root := mustParse(t, `
		@alias cc = compiler.options;
		cc.flags += "-O2";
		cc[x64].flags = "-m64";
		cc.defines : A, B;
	`)

	propertyAt(t, root.ObjectNode, "compiler.options.flags")
	propertyAt(t, root.ObjectNode, "compiler.options[x64].flags")
	propertyAt(t, root.ObjectNode, "compiler.options.defines")

	alias, ok := root.Aliases()["cc"]
	if !ok {
		t.Fatal("alias cc not declared")
	}

	if !alias.Used || alias.Priority != 1 {
		t.Errorf("alias = %+v, want used with priority 1", alias)
	}

	if root.Children().Has(NewSelector("cc")) {
		t.Error("alias name bound as an object")
	}
}

func TestParse_AliasSelfReference(t *testing.T) {
	var diags []Diagnostic

	root := mustParse(t, `@alias foo = foo.bar; @alias b = a;`,
		WithDiagnostics(func(_ context.Context, d Diagnostic) {
			diags = append(diags, d)
		}))

	if len(diags) != 1 || diags[0].Code != CodeAliasSelfReference {
		t.Fatalf("diagnostics = %v, want one AliasSelfReference", diags)
	}

	if diags[0].Severity != SeverityWarning {
		t.Errorf("Severity = %v, want warning", diags[0].Severity)
	}

	if len(root.Diagnostics()) != 1 {
		t.Errorf("Diagnostics() = %v", root.Diagnostics())
	}
}

func TestParse_ErrorDiagnostic(t *testing.T) {
	var diags []Diagnostic

	_, err := ParseString(context.Background(), `foo {`, "x.props",
		WithDiagnostics(func(_ context.Context, d Diagnostic) {
			diags = append(diags, d)
		}))
	if !errors.Is(err, ErrUnexpectedEnd) {
		t.Fatalf("error = %v, want ErrUnexpectedEnd", err)
	}

	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want one", diags)
	}

	d := diags[0]
	if d.Code != CodeUnexpectedEnd || d.Severity != SeverityError {
		t.Errorf("diagnostic = %v (%v), want UnexpectedEnd error", d.Code, d.Severity)
	}

	if len(d.Locations) != 1 || d.Locations[0].Filename != "x.props" {
		t.Errorf("Locations = %v, want one in x.props", d.Locations)
	}
}

func TestParse_Metadata(t *testing.T) {
	root := mustParse(t, `a { #desc = "hello"; #opts { x = 1; y : 2; } b = 3; }`)

	a, err := root.Children().Get(NewSelector("a"))
	if err != nil {
		t.Fatal(err)
	}

	md := a.Metadata()

	for key, want := range map[string]string{"desc": "hello", "opts.x": "1", "opts.y": "2"} {
		v, ok := md[key]
		if !ok {
			t.Errorf("metadata %q missing", key)

			continue
		}

		if s, ok := v.(*Scalar); !ok || s.Text != want {
			t.Errorf("metadata %q = %v, want %q", key, v, want)
		}
	}

	propertyAt(t, root.ObjectNode, "a.b")
}

func TestParse_Matrix(t *testing.T) {
	t.Run("template statement", func(t *testing.T) {
		root := mustParse(t, `(platforms) => defines = "PLATFORM_${each}"; after = 1;`)

		ms := root.Matrices()
		if len(ms) != 1 {
			t.Fatalf("Matrices() = %d, want 1", len(ms))
		}

		m := ms[0]
		if !slices.Equal(m.Collections, []string{"platforms"}) || m.Index != 1 {
			t.Errorf("matrix = %+v", m)
		}

		if got := m.Body.Selector().Name; got != "__1" {
			t.Errorf("body selector = %q, want __1", got)
		}

		if !m.Body.Properties().Has(NewSelector("defines")) {
			t.Error("template property missing from body")
		}

		if !root.Properties().Has(NewSelector("after")) || root.Len() != 1 {
			t.Errorf("statement after template bound to %v", root.Keys())
		}

		if got := m.EntrySelector(3).Name; got != "__1_3" {
			t.Errorf("EntrySelector(3) = %q, want __1_3", got)
		}
	})

	t.Run("block body", func(t *testing.T) {
		root := mustParse(t, `(a, b) => { x = 1; y = 2; } z = 3;`)

		m := root.Matrices()[0]
		if !slices.Equal(m.Collections, []string{"a", "b"}) || m.Body.Len() != 2 {
			t.Errorf("matrix = %+v with %d entries", m, m.Body.Len())
		}

		if root.Len() != 1 {
			t.Errorf("root entries = %v", root.Keys())
		}
	})

	t.Run("value body", func(t *testing.T) {
		root := mustParse(t, `(a) => "${each}-x";`)

		if !root.Matrices()[0].Body.Properties().Has(NewSelector(Wildcard)) {
			t.Error("value body not bound to the wildcard property")
		}
	})

	t.Run("object template", func(t *testing.T) {
		root := mustParse(t, `(a) => obj { x = 1; } y = 2;`)

		body := root.Matrices()[0].Body
		if !body.Children().Has(NewSelector("obj")) {
			t.Error("object template missing from body")
		}

		if !root.Properties().Has(NewSelector("y")) {
			t.Error("statement after object template not bound to root")
		}
	})

	t.Run("nested matrix", func(t *testing.T) {
		root := mustParse(t, `(a) => (b) => x = 1; y = 2;`)

		outer := root.Matrices()[0]
		if len(outer.Body.Matrices()) != 1 {
			t.Fatalf("inner matrix missing")
		}

		inner := outer.Body.Matrices()[0]
		if outer.Index != 1 || inner.Index != 2 {
			t.Errorf("indices = %d, %d; want 1, 2", outer.Index, inner.Index)
		}

		if !inner.Body.Properties().Has(NewSelector("x")) || !root.Properties().Has(NewSelector("y")) {
			t.Error("templates closed at the wrong statement")
		}
	})
}

func TestParse_IntoNode(t *testing.T) {
	ctx := context.Background()
	root := NewRootPropertySheet("")

	if err := Parse(ctx, Tokenize("x = 1;"), root.ObjectNode, ""); err != nil {
		t.Fatalf("Parse(root): %v", err)
	}

	child, err := root.Children().GetOrCreate(NewSelector("c"))
	if err != nil {
		t.Fatal(err)
	}

	if err := Parse(ctx, Tokenize("y = 2;"), child, ""); err != nil {
		t.Fatalf("Parse(child): %v", err)
	}

	propertyAt(t, root.ObjectNode, "x")
	propertyAt(t, root.ObjectNode, "c.y")

	if err := Parse(ctx, Tokenize("z = 3;"), &ObjectNode{}, ""); !errors.Is(err, ErrDetachedNode) {
		t.Errorf("detached node: error = %v, want ErrDetachedNode", err)
	}
}

func TestObjectNode_TypedViews(t *testing.T) {
	root := mustParse(t, `obj { p = 1; } q = 2;`)

	if _, err := root.Properties().Get(NewSelector("obj")); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Properties().Get(obj) error = %v, want ErrTypeMismatch", err)
	}

	if _, err := root.Children().Get(NewSelector("q")); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Children().Get(q) error = %v, want ErrTypeMismatch", err)
	}

	if _, err := root.Children().Get(NewSelector("nope")); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("Children().Get(nope) error = %v, want ErrRouteNotFound", err)
	}

	if _, err := root.Lookup(Route{NewSelector("q"), NewSelector("x")}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Lookup(q.x) error = %v, want ErrTypeMismatch", err)
	}

	var children, props []string
	for sel := range root.Children().All() {
		children = append(children, sel.String())
	}

	for sel := range root.Properties().All() {
		props = append(props, sel.String())
	}

	if !slices.Equal(children, []string{"obj"}) || !slices.Equal(props, []string{"q"}) {
		t.Errorf("children = %q, properties = %q", children, props)
	}

	p := propertyAt(t, root.ObjectNode, "obj.p")
	if got := p.Route().String(); got != "obj.p" {
		t.Errorf("Route() = %q, want obj.p", got)
	}

	before := p.Version()
	p.Add(AddToCollection, &Scalar{Text: "2"})

	if p.Version() != before+1 {
		t.Errorf("Version() = %d, want %d", p.Version(), before+1)
	}

	p.Add(Clear, nil)

	if vals, _ := p.Values(literalContext{}, nil); len(vals) != 0 {
		t.Errorf("Values() after Clear = %q", vals)
	}
}

func TestPermutation(t *testing.T) {
	var nilPerm *Permutation
	if _, ok := nilPerm.Each(); ok {
		t.Error("nil permutation has each")
	}

	single := NewPermutation([]string{"a"}, []any{"x"})
	if each, _ := single.Each(); each != "x" {
		t.Errorf("single Each() = %v, want x", each)
	}

	pair := NewPermutation([]string{"a", "b"}, []any{"x", "y"})
	if each, _ := pair.Each(); !slices.Equal(each.([]any), []any{"x", "y"}) {
		t.Errorf("pair Each() = %v, want tuple", each)
	}

	if v, ok := pair.Named("b"); !ok || v != "y" {
		t.Errorf("Named(b) = %v, %v", v, ok)
	}

	if v, ok := pair.Item(0); !ok || v != "x" {
		t.Errorf("Item(0) = %v, %v", v, ok)
	}

	bound := pair.WithEach("z")
	if each, _ := bound.Each(); each != "z" {
		t.Errorf("WithEach Each() = %v, want z", each)
	}

	if v, _ := bound.Named("a"); v != "x" || bound.Len() != 2 {
		t.Error("WithEach dropped the tuple")
	}
}
