package view

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuiltinKeys(t *testing.T) {
	want := []string{"cwd", "each", "env", "file", "hostname", "list", "macro", "path", "platform"}

	if diff := cmp.Diff(want, BuiltinKeys()); diff != "" {
		t.Errorf("BuiltinKeys() (-want +got):\n%s", diff)
	}
}

func TestBuiltins_Isolated(t *testing.T) {
	env := Builtins()
	env["cwd"] = "changed"
	delete(env, "path")

	again := Builtins()
	if _, ok := again["path"]; !ok {
		t.Error("deleting from a copy removed a shared builtin")
	}

	if s, ok := again["cwd"].(string); ok && s == "changed" {
		t.Error("assigning to a copy changed a shared builtin")
	}

	cat, ok := Field(again, "path.cat")
	if !ok {
		t.Fatal("path.cat not found")
	}

	join, ok := cat.(func(...string) string)
	if !ok {
		t.Fatalf("path.cat has type %T", cat)
	}

	if got := join("a", "b"); got != filepath.Join("a", "b") {
		t.Errorf("path.cat(a, b) = %q", got)
	}
}

func TestListBuiltins(t *testing.T) {
	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"split drops empty", listSplit(";a;;b;"), []string{"a", "b"}},
		{"split drops repeats", listSplit("a;b;a"), []string{"a", "b"}},
		{"suffix skips present", listSplit(listSuffix("a;b", "b", "c")), []string{"a", "b", "c"}},
		{"suffix moves present", listSplit(listSuffix("a;b;c", "a")), []string{"b", "c", "a"}},
		{"suffix of empty", listSplit(listSuffix("", "x")), []string{"x"}},
		{"prefix moves present", listSplit(listPrefix("a;b;c", "c")), []string{"c", "a", "b"}},
		{"prefix of empty", listSplit(listPrefix("", "x")), []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !slices.Equal(tt.got, tt.want) {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
