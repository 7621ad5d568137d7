package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the unevaluated tree of s in native property-sheet syntax.
// An indent of zero writes everything on one line.
func (s *PropertySheet) Format(_ context.Context, w io.Writer, indent int) error {
	f := &formatter{w: w, indent: indent}

	for _, imp := range s.imports {
		f.line(0, "@import "+quote(imp.Filename)+";")
	}

	f.node(s.ObjectNode, 0)

	if indent == 0 {
		f.write("\n")
	}

	return f.err
}

// FormatJSON writes the unevaluated tree of s as JSON.
func (s *PropertySheet) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(s, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(s)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the unevaluated tree of s as YAML.
func (s *PropertySheet) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, s.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// formatter writes native syntax and records the first write error.
type formatter struct {
	w       io.Writer
	indent  int
	err     error
	started bool
}

func (f *formatter) write(s string) {
	if f.err == nil {
		_, f.err = io.WriteString(f.w, s)
	}
}

// line writes one statement at depth.
func (f *formatter) line(depth int, s string) {
	if f.indent == 0 {
		if f.started {
			f.write(" ")
		}

		f.write(s)
		f.started = true

		return
	}

	f.write(strings.Repeat(" ", depth*f.indent) + s + "\n")
}

func (f *formatter) node(n *ObjectNode, depth int) {
	for _, name := range sortedKeys(n.aliases) {
		a := n.aliases[name]
		f.line(depth, "@alias "+a.Name+" = "+a.Reference.String()+";")
	}

	for _, key := range sortedKeys(n.metadata) {
		f.line(depth, "#"+key+" = "+n.metadata[key].String()+";")
	}

	for _, sel := range n.Keys() {
		switch e := n.entries[sel.Key()].(type) {
		case *ObjectNode:
			f.line(depth, sel.String()+" {")
			f.node(e, depth+1)
			f.line(depth, "}")

		case *PropertyNode:
			for _, c := range e.changes {
				f.line(depth, formatChange(sel, c))
			}
		}
	}

	for _, m := range n.matrices {
		f.line(depth, "("+strings.Join(m.Collections, ", ")+") => {")
		f.node(m.Body, depth+1)
		f.line(depth, "}")
	}
}

func formatChange(sel Selector, c Change) string {
	if c.Operation == Clear || c.Value == nil {
		return sel.String() + " : {};"
	}

	return sel.String() + " " + c.String() + ";"
}
