package view

import (
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/ardnew/psheet/lang"
	"github.com/ardnew/psheet/log"
)

// DefaultMaxPasses is the default cap on fixed-point macro passes.
var DefaultMaxPasses = 64

// MacroFunc answers the value of a macro name. The second result reports
// whether the name is known.
type MacroFunc func(name string) (string, bool)

// CollectionProvider supplies the items of named collections.
type CollectionProvider interface {
	Collection(name string) ([]any, bool)
}

// Collections is a [CollectionProvider] backed by a map.
type Collections map[string][]any

// Collection implements [CollectionProvider].
func (c Collections) Collection(name string) ([]any, bool) {
	items, ok := c[name]

	return items, ok
}

// InstructionEvaluator runs embedded instruction bodies.
type InstructionEvaluator interface {
	Evaluate(body string, env map[string]any) (any, error)
}

// lookupFunc is a fallback macro source consulted after the permutation.
type lookupFunc func(name string, perm *lang.Permutation) ([]string, bool, error)

// Context resolves macros, collections and embedded instructions. It
// implements [lang.ValueContext].
//
// A Context is not safe for concurrent use.
type Context struct {
	responders   []MacroFunc
	collections  []CollectionProvider
	instructions InstructionEvaluator
	maxPasses    int
	logger       log.Logger

	fallback      lookupFunc
	collectionsOf func(name string) ([]any, bool)
}

// Option configures a [Context].
type Option func(*Context)

// WithMacros registers macro responders. Responders are consulted in
// registration order and the first answer wins.
func WithMacros(fns ...MacroFunc) Option {
	return func(c *Context) {
		c.responders = append(c.responders, fns...)
	}
}

// WithDefines registers a responder answering from a fixed map.
func WithDefines(defines map[string]string) Option {
	defines = maps.Clone(defines)

	return WithMacros(func(name string) (string, bool) {
		v, ok := defines[name]

		return v, ok
	})
}

// WithCollections registers collection providers, consulted in order.
func WithCollections(providers ...CollectionProvider) Option {
	return func(c *Context) {
		c.collections = append(c.collections, providers...)
	}
}

// WithInstructions replaces the embedded instruction evaluator.
func WithInstructions(e InstructionEvaluator) Option {
	return func(c *Context) {
		c.instructions = e
	}
}

// WithMaxPasses caps the number of fixed-point macro passes.
func WithMaxPasses(n int) Option {
	return func(c *Context) {
		c.maxPasses = n
	}
}

// WithLogger sets the structured logger for trace-level debugging.
func WithLogger(logger log.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// NewContext returns a context configured by opts. Without
// [WithInstructions], embedded instructions are evaluated by expr-lang.
func NewContext(opts ...Option) *Context {
	c := &Context{maxPasses: DefaultMaxPasses}

	for _, opt := range opts {
		opt(c)
	}

	if c.instructions == nil {
		c.instructions = NewExprEvaluator()
	}

	return c
}

// ResolveMacros implements [lang.ValueContext]. Substitution repeats until a
// pass changes nothing. Unknown macros are left in place.
func (c *Context) ResolveMacros(text string, perm *lang.Permutation) (string, error) {
	for pass := 0; ; pass++ {
		if pass >= c.maxPasses {
			return "", ErrMacroResolution.With(
				slog.String("text", text),
				slog.Int("passes", pass),
			)
		}

		out, err := c.substitute(text, perm)
		if err != nil {
			return "", err
		}

		if out == text {
			if pass > 1 {
				c.logger.Trace("macro fixed point",
					slog.Int("passes", pass),
					slog.String("result", out))
			}

			return out, nil
		}

		text = out
	}
}

// MacroValues implements [lang.ValueContext].
func (c *Context) MacroValues(name string, perm *lang.Permutation) ([]string, error) {
	vals, ok, err := c.lookup(name, perm)
	if err != nil {
		return nil, err
	}

	if !ok {
		return []string{"${" + name + "}"}, nil
	}

	out := make([]string, len(vals))
	for i, v := range vals {
		if out[i], err = c.ResolveMacros(v, perm); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// MacroValue implements [lang.ValueContext].
func (c *Context) MacroValue(name string, perm *lang.Permutation) (string, error) {
	vals, err := c.MacroValues(name, perm)
	if err != nil {
		return "", err
	}

	return strings.Join(vals, lang.ScalarSeparator), nil
}

// Collection implements [lang.ValueContext]. Unknown collections yield a
// single empty item.
func (c *Context) Collection(name string, _ *lang.Permutation) []any {
	for _, p := range c.collections {
		if items, ok := p.Collection(name); ok {
			return items
		}
	}

	if c.collectionsOf != nil {
		if items, ok := c.collectionsOf(name); ok {
			return items
		}
	}

	return []any{""}
}

// Instruction implements [lang.ValueContext]. Macros in body are resolved
// before evaluation.
func (c *Context) Instruction(body string, perm *lang.Permutation) ([]string, error) {
	src, err := c.ResolveMacros(body, perm)
	if err != nil {
		return nil, err
	}

	out, err := c.instructions.Evaluate(src, c.instructionEnv(perm))
	if err != nil {
		return nil, ErrInstruction.Wrap(err).With(slog.String("source", src))
	}

	if out == nil {
		return nil, nil
	}

	return stringify(out), nil
}

// instructionEnv exposes the permutation and macros to an instruction.
func (c *Context) instructionEnv(perm *lang.Permutation) map[string]any {
	env := builtinEnv()

	if each, ok := perm.Each(); ok {
		env["each"] = each
	}

	if perm != nil {
		for i, name := range perm.Names {
			if i < len(perm.Items) {
				env[name] = perm.Items[i]
			}
		}
	}

	env["macro"] = func(name string) string {
		v, err := c.MacroValue(name, perm)
		if err != nil {
			return ""
		}

		return v
	}

	return env
}

// lookup answers a macro name: responders first, then the permutation, then
// the fallback.
func (c *Context) lookup(name string, perm *lang.Permutation) ([]string, bool, error) {
	for _, fn := range c.responders {
		if v, ok := fn(name); ok {
			return []string{v}, true, nil
		}
	}

	if v, ok := permutationValue(name, perm); ok {
		return stringify(v), true, nil
	}

	if c.fallback != nil {
		return c.fallback(name, perm)
	}

	return nil, false, nil
}

// permutationValue interprets name as a reference into perm: "each", a tuple
// index or a collection name, optionally followed by a dotted field path.
func permutationValue(name string, perm *lang.Permutation) (any, bool) {
	if perm == nil {
		return nil, false
	}

	head, path, _ := strings.Cut(name, ".")

	var (
		item any
		ok   bool
	)

	if head == "each" {
		item, ok = perm.Each()
	} else if n, err := strconv.Atoi(head); err == nil {
		item, ok = perm.Item(n)
	} else {
		item, ok = perm.Named(head)
	}

	if !ok {
		return nil, false
	}

	return Field(item, path)
}

// substitute performs one pass over text, replacing every ${...} whose name
// is known. Nested macros in a name are resolved first.
func (c *Context) substitute(text string, perm *lang.Permutation) (string, error) {
	if !strings.Contains(text, "${") {
		return text, nil
	}

	var sb strings.Builder

	for {
		start := strings.Index(text, "${")
		if start < 0 {
			sb.WriteString(text)

			return sb.String(), nil
		}

		end := matchBrace(text, start+2)
		if end < 0 {
			sb.WriteString(text)

			return sb.String(), nil
		}

		sb.WriteString(text[:start])

		body := text[start+2 : end]
		if strings.Contains(body, "${") {
			var err error
			if body, err = c.substitute(body, perm); err != nil {
				return "", err
			}
		}

		name := strings.TrimSpace(body)

		vals, ok, err := c.lookup(name, perm)
		if err != nil {
			return "", err
		}

		if ok {
			sb.WriteString(strings.Join(vals, lang.ScalarSeparator))
		} else {
			sb.WriteString("${" + body + "}")
		}

		text = text[end+1:]
	}
}

// matchBrace returns the index of the '}' closing a "${" whose body starts
// at from, or -1.
func matchBrace(text string, from int) int {
	depth := 1

	for i := from; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
