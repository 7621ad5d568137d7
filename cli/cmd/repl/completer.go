package repl

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/psheet/lang"
	"github.com/ardnew/psheet/view"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "clear", "quit"}

// isWordBoundary reports whether r ends a completion word. Hyphens belong to
// identifiers.
func isWordBoundary(r rune) bool {
	return !isIdentRune(r) && r != '*' && r != ':'
}

// completion locates the word under the cursor and the dotted path leading
// to it. For "a + path.ca" with the cursor at the end, word is "ca" and
// parent is "path".
type completion struct {
	word       string
	start, end int
	parent     string
}

func locate(input string, cursor int) completion {
	cursor = min(cursor, len(input))

	c := completion{start: cursor, end: cursor}

	for c.start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:c.start])
		if isWordBoundary(r) {
			break
		}

		c.start -= size
	}

	for c.end < len(input) {
		r, size := utf8.DecodeRuneInString(input[c.end:])
		if isWordBoundary(r) {
			break
		}

		c.end += size
	}

	c.word = input[c.start:c.end]

	// The parent chain is the run of words joined by dots immediately
	// before the word.
	pos := c.start
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	c.parent = strings.Trim(input[pos:c.start], ".")

	return c
}

// inInstruction reports whether the cursor is inside an unterminated "<%"
// instruction.
func inInstruction(input string, cursor int) bool {
	before := input[:min(cursor, len(input))]

	open := strings.LastIndex(before, "<%")

	return open >= 0 && !strings.Contains(before[open:], "%>")
}

// routeTree indexes the segments of every known route.
type routeTree [][]string

func newRouteTree(routes []lang.Route) routeTree {
	tree := make(routeTree, len(routes))

	for i, r := range routes {
		segs := make([]string, len(r))
		for j, sel := range r {
			segs[j] = sel.String()
		}

		tree[i] = segs
	}

	return tree
}

// children returns the distinct selectors directly below parent, in route
// order.
func (t routeTree) children(parent string) []string {
	var prefix []string
	if parent != "" {
		prefix = strings.Split(parent, ".")
	}

	var (
		out  []string
		seen = make(map[string]bool)
	)

	for _, segs := range t {
		if len(segs) <= len(prefix) || !slices.Equal(segs[:len(prefix)], prefix) {
			continue
		}

		if next := segs[len(prefix)]; !seen[next] {
			seen[next] = true
			out = append(out, next)
		}
	}

	return out
}

// builtinChildren returns the instruction environment names below parent.
func builtinChildren(parent string) []string {
	if parent == "" {
		return append(view.BuiltinKeys(), exprBuiltinNames()...)
	}

	v, ok := view.Field(view.Builtins(), parent)
	if !ok || v == nil {
		return nil
	}

	if m, ok := v.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m))
	}

	t := reflect.TypeOf(v)
	if t.Kind() != reflect.Struct {
		return nil
	}

	var names []string

	for i := range t.NumField() {
		if f := t.Field(i); f.IsExported() {
			names = append(names, f.Name)
		}
	}

	return names
}

// computeMatches ranks the candidates for the word under the cursor, best
// first. An empty word completes nothing at the top level and everything
// after a dot.
func (m model) computeMatches() (fuzzy.Matches, completion) {
	input := m.input.Value()
	c := locate(input, m.input.Position())

	var candidates []string

	switch {
	case m.mode == modeCtrl:
		if c.word == "" {
			return nil, c
		}

		candidates = ctrlCommands

	case inInstruction(input, m.input.Position()):
		candidates = builtinChildren(c.parent)

	default:
		candidates = m.tree.children(c.parent)
	}

	if len(candidates) == 0 || (c.word == "" && c.parent == "") {
		return nil, c
	}

	if c.word == "" {
		matches := make(fuzzy.Matches, len(candidates))
		for i, s := range candidates {
			matches[i] = fuzzy.Match{Str: s, Index: i}
		}

		return matches, c
	}

	return fuzzy.Find(c.word, candidates), c
}

// renderCandidateBar renders the matches on one line, ellipsized to width.
// The selected candidate is highlighted while tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	selected int,
	tabbing bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(sep) + lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		item := renderCandidate(match, tabbing && i == selected)
		w := lipgloss.Width(item)

		if i > 0 {
			w += lipgloss.Width(sep)

			last := i == len(matches)-1
			if used+w > width || (!last && used+w+reserve > width) {
				b.WriteString(sep)
				b.WriteString(ellipsis)

				break
			}

			b.WriteString(sep)
		}

		b.WriteString(item)

		used += w
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched runes emphasized.
// Callable builtins are suffixed with "()".
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, emph := suggestionStyle, matchStyle
	if selected {
		base, emph = selectedStyle, selectedMatchStyle
	}

	hit := make(map[int]bool, len(match.MatchedIndexes))
	for _, i := range match.MatchedIndexes {
		hit[i] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if hit[i] {
			b.WriteString(emph.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if isFunction(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
