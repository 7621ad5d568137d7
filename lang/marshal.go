package lang

import (
	"encoding/json"
	"strings"
)

// MarshalJSON implements json.Marshaler for PropertySheet.
func (s *PropertySheet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToMap())
}

// ToMap converts the unevaluated tree of s to native Go values.
//
// Objects become maps keyed by selector source form. A property becomes the
// list of its changes in source form. Aliases, metadata and imports are kept
// under the keys "@alias", "#<name>" and "@import"; matrix templates under
// "(c1, c2) => __<index>".
func (s *PropertySheet) ToMap() map[string]any {
	result := nodeMap(s.ObjectNode)

	if len(s.imports) > 0 {
		imports := make([]any, len(s.imports))
		for i, imp := range s.imports {
			imports[i] = imp.Filename
		}

		result["@import"] = imports
	}

	return result
}

func nodeMap(n *ObjectNode) map[string]any {
	result := make(map[string]any, len(n.entries))

	for sel, e := range entriesOf[Node](n) {
		switch e := e.(type) {
		case *ObjectNode:
			result[sel.String()] = nodeMap(e)

		case *PropertyNode:
			changes := make([]any, len(e.changes))
			for i, c := range e.changes {
				changes[i] = c.String()
			}

			result[sel.String()] = changes
		}
	}

	if len(n.aliases) > 0 {
		aliases := make(map[string]any, len(n.aliases))
		for name, a := range n.aliases {
			aliases[name] = a.Reference.String()
		}

		result["@alias"] = aliases
	}

	for key, v := range n.metadata {
		result["#"+key] = v.String()
	}

	for _, m := range n.matrices {
		key := "(" + strings.Join(m.Collections, ", ") + ") => " + m.Body.selector.Name
		result[key] = nodeMap(m.Body)
	}

	return result
}
