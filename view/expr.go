package view

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"
)

// ExprEvaluator evaluates embedded instructions as expr-lang expressions.
// Compiled programs are cached by the xxh3 hash of their source.
type ExprEvaluator struct {
	programs sync.Map // uint64 -> *cachedProgram
}

type cachedProgram struct {
	once    sync.Once
	source  string
	program *vm.Program
	err     error
}

// NewExprEvaluator returns an evaluator with an empty program cache.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{}
}

// Evaluate implements [InstructionEvaluator].
func (e *ExprEvaluator) Evaluate(body string, env map[string]any) (any, error) {
	program, err := e.compile(body)
	if err != nil {
		return nil, err
	}

	return vm.Run(program, env)
}

func (e *ExprEvaluator) compile(source string) (*vm.Program, error) {
	value, _ := e.programs.LoadOrStore(
		xxh3.HashString(source),
		&cachedProgram{source: source},
	)

	entry, ok := value.(*cachedProgram)
	if !ok || entry.source != source {
		// Hash collision: bypass the cache.
		return expr.Compile(source)
	}

	entry.once.Do(func() {
		entry.program, entry.err = expr.Compile(source)
	})

	return entry.program, entry.err
}
