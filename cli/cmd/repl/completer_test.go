package repl

import (
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/psheet/lang"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		cursor int
		want   completion
	}{
		{"simple", "foo", 3, completion{word: "foo", start: 0, end: 3}},
		{"dotted", "bar.baz", 7, completion{word: "baz", start: 4, end: 7, parent: "bar"}},
		{"after_plus", "a + fo", 6, completion{word: "fo", start: 4, end: 6}},
		{"after_paren", "path.cat(fo", 11, completion{word: "fo", start: 9, end: 11}},
		{"after_comma", "f(a, fo", 7, completion{word: "fo", start: 5, end: 7}},
		{"empty_at_boundary", "a + ", 4, completion{start: 4, end: 4}},
		{"mid_word", "foobar", 3, completion{word: "foobar", start: 0, end: 6}},
		{"hyphenated", "log-pretty", 10, completion{word: "log-pretty", start: 0, end: 10}},
		{"glob", "a.*", 3, completion{word: "*", start: 2, end: 3, parent: "a"}},
		{"empty_after_dot", "config.", 7, completion{start: 7, end: 7, parent: "config"}},
		{
			"deep_after_operator", "x + a.b.c", 9,
			completion{word: "c", start: 8, end: 9, parent: "a.b"},
		},
		{
			"instruction", "<% path.c", 9,
			completion{word: "c", start: 8, end: 9, parent: "path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := locate(tt.input, tt.cursor)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(completion{})); diff != "" {
				t.Errorf("locate(%q, %d) mismatch (-want +got):\n%s", tt.input, tt.cursor, diff)
			}
		})
	}
}

func TestInInstruction(t *testing.T) {
	tests := []struct {
		input  string
		cursor int
		want   bool
	}{
		{"a.b", 3, false},
		{"<% len(", 7, true},
		{"<% 1 %>", 7, false},
		{"<% 1 %> <% pa", 13, true},
		{"<% 1 %>", 3, true},
	}

	for _, tt := range tests {
		if got := inInstruction(tt.input, tt.cursor); got != tt.want {
			t.Errorf("inInstruction(%q, %d) = %v, want %v", tt.input, tt.cursor, got, tt.want)
		}
	}
}

func TestRouteTree_Children(t *testing.T) {
	var routes []lang.Route

	for _, s := range []string{"cc.flags", "cc.bin", "ld.flags", "cc.opt.level", "name"} {
		r, err := lang.ParseRoute(s)
		if err != nil {
			t.Fatalf("ParseRoute(%q): %v", s, err)
		}

		routes = append(routes, r)
	}

	tree := newRouteTree(routes)

	tests := []struct {
		parent string
		want   []string
	}{
		{"", []string{"cc", "ld", "name"}},
		{"cc", []string{"flags", "bin", "opt"}},
		{"cc.opt", []string{"level"}},
		{"name", nil},
		{"missing", nil},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, tree.children(tt.parent)); diff != "" {
			t.Errorf("children(%q) mismatch (-want +got):\n%s", tt.parent, diff)
		}
	}
}

func TestBuiltinChildren(t *testing.T) {
	if diff := cmp.Diff(
		[]string{"abs", "base", "cat", "dir", "ext", "rel"},
		builtinChildren("path"),
	); diff != "" {
		t.Errorf("builtinChildren(path) mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"OS", "Arch"}, builtinChildren("platform")); diff != "" {
		t.Errorf("builtinChildren(platform) mismatch (-want +got):\n%s", diff)
	}

	if got := builtinChildren("path.cat"); got != nil {
		t.Errorf("builtinChildren(path.cat) = %v, want nil", got)
	}

	top := builtinChildren("")
	for _, want := range []string{"path", "list", "len"} {
		if !slices.Contains(top, want) {
			t.Errorf("builtinChildren(\"\") missing %q", want)
		}
	}
}

func TestRenderCandidateBar_Ellipsis(t *testing.T) {
	matches := []string{"alpha", "beta", "gamma", "delta", "epsilon"}

	var ms fuzzy.Matches
	for i, s := range matches {
		ms = append(ms, fuzzy.Match{Str: s, Index: i})
	}

	if got := renderCandidateBar(ms, -1, false, 0); got != "" {
		t.Errorf("zero width bar = %q, want empty", got)
	}

	if got := renderCandidateBar(nil, -1, false, 80); got != "" {
		t.Errorf("empty bar = %q, want empty", got)
	}

	if got := renderCandidateBar(ms, -1, false, 14); !strings.Contains(got, "...") {
		t.Errorf("narrow bar %q is not ellipsized", got)
	}
}
