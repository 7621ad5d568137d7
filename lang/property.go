package lang

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Operation is the kind of a [Change].
type Operation int

const (
	// AddToCollection appends values (+=).
	AddToCollection Operation = iota
	// Assignment replaces the accumulator with a single scalar value (=, :=).
	Assignment
	// CollectionAssignment replaces the accumulator with a list (:).
	CollectionAssignment
	// Clear empties the accumulator.
	Clear
)

// String returns the source operator of the operation.
func (op Operation) String() string {
	switch op {
	case AddToCollection:
		return "+="
	case Assignment:
		return "="
	case CollectionAssignment:
		return ":"
	case Clear:
		return "clear"
	default:
		return "Operation(" + strconv.Itoa(int(op)) + ")"
	}
}

// Change is one recorded operation on a property.
type Change struct {
	Operation Operation
	Value     Value
}

// String renders the change in source form.
func (c Change) String() string {
	if c.Value == nil {
		return c.Operation.String()
	}

	return c.Operation.String() + " " + c.Value.String()
}

// PropertyNode is a leaf holding an ordered list of unevaluated changes.
// Changes are never modified after insertion; evaluation replays them
// against a fresh accumulator.
type PropertyNode struct {
	parent   *ObjectNode
	selector Selector
	changes  []Change
	version  uint64
}

// Parent returns the owning node.
func (p *PropertyNode) Parent() *ObjectNode { return p.parent }

// Selector returns the key of the property.
func (p *PropertyNode) Selector() Selector { return p.selector }

// Route returns the path from the sheet's top node to p.
func (p *PropertyNode) Route() Route {
	return p.parent.Route().Append(p.selector)
}

// Changes returns a copy of the recorded changes in declaration order.
func (p *PropertyNode) Changes() []Change { return slices.Clone(p.changes) }

// Version increases with every added change.
func (p *PropertyNode) Version() uint64 { return p.version }

// Add records a change.
func (p *PropertyNode) Add(op Operation, v Value) {
	p.changes = append(p.changes, Change{Operation: op, Value: v})
	p.version++
}

// Replay applies the changes to acc in declaration order and returns the
// result.
func (p *PropertyNode) Replay(
	acc []string,
	ctx ValueContext,
	perm *Permutation,
) ([]string, error) {
	for _, c := range p.changes {
		var vals []string

		if c.Value != nil {
			var err error
			if vals, err = c.Value.Values(ctx, perm); err != nil {
				return nil, ErrReplay.Wrap(err).With(
					slog.String("property", p.Route().String()),
					slog.String("location", c.Value.Location().String()),
				)
			}
		}

		switch c.Operation {
		case AddToCollection:
			acc = append(acc, vals...)
		case Assignment:
			acc = []string{strings.Join(vals, ScalarSeparator)}
		case CollectionAssignment:
			acc = slices.Clone(vals)
		case Clear:
			acc = nil
		}
	}

	return acc, nil
}

// Values evaluates the property on its own, without cascading.
func (p *PropertyNode) Values(ctx ValueContext, perm *Permutation) ([]string, error) {
	return p.Replay(nil, ctx, perm)
}

// Value evaluates the property as a scalar.
func (p *PropertyNode) Value(ctx ValueContext, perm *Permutation) (string, error) {
	vals, err := p.Values(ctx, perm)
	if err != nil {
		return "", err
	}

	return strings.Join(vals, ScalarSeparator), nil
}

// LogValue implements slog.LogValuer.
func (p *PropertyNode) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("route", p.Route().String()),
		slog.Int("changes", len(p.changes)),
	)
}
