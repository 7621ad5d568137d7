package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		indent int
		want   string
	}{
		{
			name:   "single line",
			input:  `foo { bar : "x"; }`,
			indent: 0,
			want:   "foo { bar : \"x\"; }\n",
		},
		{
			name:   "indented",
			input:  `foo { bar : "x"; }`,
			indent: 2,
			want:   "foo {\n  bar : \"x\";\n}\n",
		},
		{
			name:   "operators",
			input:  `a = 1; a += 2; b : x, y;`,
			indent: 2,
			want:   "a = \"1\";\na += \"2\";\nb : { \"x\", \"y\" };\n",
		},
		{
			name:   "empty",
			input:  ``,
			indent: 0,
			want:   "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.input)

			var buf bytes.Buffer
			if err := root.Format(context.Background(), &buf, tt.indent); err != nil {
				t.Fatalf("Format: %v", err)
			}

			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("Format mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	const input = `
		@alias cc = compiler;
		compiler {
			#desc = "C compiler";
			flags : "-O2", "-g";
			flags += "-Wall";
			defines[x64] = "WIN64";
			ver <% 1 + 2 %>;
		}
		list : { 1, 2 } => "${each}0";
		(platforms) => out = "${each}";
	`

	format := func(text string) string {
		t.Helper()

		var buf bytes.Buffer
		if err := mustParse(t, text).Format(context.Background(), &buf, 4); err != nil {
			t.Fatalf("Format: %v", err)
		}

		return buf.String()
	}

	first := format(input)
	second := format(first)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("formatted output does not round-trip (-first +second):\n%s", diff)
	}

	for _, want := range []string{"@alias cc = compiler;", `#desc = "C compiler";`, "(platforms) => {"} {
		if !strings.Contains(first, want) {
			t.Errorf("output missing %q:\n%s", want, first)
		}
	}
}

func TestToMap(t *testing.T) {
	root := mustParse(t, `foo { bar : "x"; } @alias a = foo; #m = 1; (p) => x = 1;`)

	want := map[string]any{
		"foo":        map[string]any{"bar": []any{`: "x"`}},
		"@alias":     map[string]any{"a": "foo"},
		"#m":         `"1"`,
		"(p) => __1": map[string]any{"x": []any{`= "1"`}},
	}

	if diff := cmp.Diff(want, root.ToMap()); diff != "" {
		t.Errorf("ToMap mismatch (-want +got):\n%s", diff)
	}

	data, err := json.Marshal(root.PropertySheet)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON %s: %v", data, err)
	}

	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatJSONAndYAML(t *testing.T) {
	root := mustParse(t, `foo { bar : "x"; }`)

	var js bytes.Buffer
	if err := root.FormatJSON(context.Background(), &js, 2); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}

	if !json.Valid(js.Bytes()) {
		t.Errorf("FormatJSON wrote invalid JSON:\n%s", js.String())
	}

	var ym bytes.Buffer
	if err := root.FormatYAML(context.Background(), &ym, 2); err != nil {
		t.Fatalf("FormatYAML: %v", err)
	}

	if !strings.Contains(ym.String(), "foo:") || !strings.Contains(ym.String(), "bar:") {
		t.Errorf("FormatYAML output:\n%s", ym.String())
	}
}
