package lang

import (
	"context"
	"iter"
	"log/slog"
	"strconv"

	"github.com/ardnew/psheet/log"
)

// DefaultMaxDepth is the default maximum nesting depth of braces.
// Users may modify this before parsing to change the default.
var DefaultMaxDepth = 100

// PropertySheet is the top node of one parsed source together with the
// sheets it imports.
type PropertySheet struct {
	*ObjectNode

	Filename string

	imports []*PropertySheet
	root    *RootPropertySheet
}

func newPropertySheet(root *RootPropertySheet, filename string) *PropertySheet {
	s := &PropertySheet{Filename: filename, root: root}
	s.ObjectNode = &ObjectNode{sheet: s}

	return s
}

// Imports returns the sheets imported directly by s, in declaration order.
func (s *PropertySheet) Imports() []*PropertySheet { return s.imports }

// Cascade yields s and then its imports depth-first, each distinct sheet
// once. Earlier sheets take precedence over later ones.
func (s *PropertySheet) Cascade() iter.Seq[*PropertySheet] {
	return func(yield func(*PropertySheet) bool) {
		seen := make(map[*PropertySheet]bool)
		stack := []*PropertySheet{s}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if seen[top] {
				continue
			}

			seen[top] = true

			if !yield(top) {
				return
			}

			for i := len(top.imports) - 1; i >= 0; i-- {
				stack = append(stack, top.imports[i])
			}
		}
	}
}

func (s *PropertySheet) addImport(imp *PropertySheet) {
	for _, have := range s.imports {
		if have == imp {
			return
		}
	}

	s.imports = append(s.imports, imp)
}

// LogValue implements slog.LogValuer.
func (s *PropertySheet) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("filename", s.Filename),
		slog.Int("entries", s.Len()),
		slog.Int("imports", len(s.imports)),
	)
}

// RootPropertySheet owns a parse session: the sheet tree, the registry of
// imported files and the index counter used for generated keys.
type RootPropertySheet struct {
	*PropertySheet

	index    int
	registry map[string]*PropertySheet
	order    []*PropertySheet
	diags    []Diagnostic
	source   string
	opts     options
}

// options configures parsing.
type options struct {
	logger      log.Logger
	resolver    FileResolver
	handler     DiagnosticHandler
	searchPath  []string
	maxDepth    int
	userImports bool
}

// Option configures parsing behavior.
type Option func(*RootPropertySheet)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(r *RootPropertySheet) {
		r.opts.logger = logger
	}
}

// WithMaxDepth sets the maximum nesting depth of braces.
func WithMaxDepth(depth int) Option {
	return func(r *RootPropertySheet) {
		r.opts.maxDepth = depth
	}
}

// WithResolver sets the file resolver used for @import.
func WithResolver(res FileResolver) Option {
	return func(r *RootPropertySheet) {
		r.opts.resolver = res
	}
}

// WithSearchPath appends directories searched for bare import names after
// the importing sheet's own directory.
func WithSearchPath(dirs ...string) Option {
	return func(r *RootPropertySheet) {
		r.opts.searchPath = append(r.opts.searchPath, dirs...)
	}
}

// WithDiagnostics sets the handler that receives diagnostics. The default
// handler logs them.
func WithDiagnostics(h DiagnosticHandler) Option {
	return func(r *RootPropertySheet) {
		r.opts.handler = h
	}
}

// WithUserImports enables or disables the automatic import of the
// "<sheet>.user" override file. It is enabled by default.
func WithUserImports(enable bool) Option {
	return func(r *RootPropertySheet) {
		r.opts.userImports = enable
	}
}

// NewRootPropertySheet returns an empty root sheet for filename.
func NewRootPropertySheet(filename string, opts ...Option) *RootPropertySheet {
	r := &RootPropertySheet{registry: make(map[string]*PropertySheet)}

	r.opts.maxDepth = DefaultMaxDepth
	r.opts.userImports = true

	for _, opt := range opts {
		opt(r)
	}

	if r.opts.resolver == nil {
		r.opts.resolver = NewSearchPath(r.opts.searchPath...)
	}

	if r.opts.handler == nil {
		r.opts.handler = logDiagnostic(r.opts.logger)
	}

	r.PropertySheet = newPropertySheet(r, filename)

	return r
}

// CurrentIndex returns the last value handed out by [NextIndexValue].
func (r *RootPropertySheet) CurrentIndex() int { return r.index }

// NextIndexValue increments and returns the index counter.
func (r *RootPropertySheet) NextIndexValue() int {
	r.index++

	return r.index
}

// Sheets returns every sheet registered with the root, the root first, in
// the order they were parsed.
func (r *RootPropertySheet) Sheets() []*PropertySheet {
	out := make([]*PropertySheet, 0, len(r.order)+1)
	out = append(out, r.PropertySheet)

	for _, s := range r.order {
		if s != r.PropertySheet {
			out = append(out, s)
		}
	}

	return out
}

// Diagnostics returns the diagnostics reported so far.
func (r *RootPropertySheet) Diagnostics() []Diagnostic { return r.diags }

// Logger returns the configured logger.
func (r *RootPropertySheet) Logger() log.Logger { return r.opts.logger }

// Source returns the text the root sheet was parsed from.
func (r *RootPropertySheet) Source() string { return r.source }

func (r *RootPropertySheet) report(ctx context.Context, d Diagnostic) {
	r.diags = append(r.diags, d)
	r.opts.handler(ctx, d)
}

// Matrix records a "( c1, c2 ) => statement" declaration. The body is a
// template evaluated once per combination of the named collections.
type Matrix struct {
	Collections []string
	Body        *ObjectNode
	Index       int
	Loc         SourceLocation
}

// EntrySelector returns the generated key of the n'th combination.
func (m *Matrix) EntrySelector(n int) Selector {
	return Selector{
		Name:     "__" + strconv.Itoa(m.Index) + "_" + strconv.Itoa(n),
		Location: m.Loc,
	}
}

// LogValue implements slog.LogValuer.
func (m *Matrix) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("index", m.Index),
		slog.Any("collections", m.Collections),
		slog.String("location", m.Loc.String()),
	)
}
