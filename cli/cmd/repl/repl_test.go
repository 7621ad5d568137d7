package repl

import (
	"context"
	"strings"
	"testing"

	"github.com/ardnew/psheet/lang"
	"github.com/ardnew/psheet/log"
	"github.com/ardnew/psheet/view"
)

const testSheet = `
	name = app;
	cc {
		bin = gcc;
		flags : "-O2", "-g";
	}
`

func testLoader(ctx context.Context, text string) (*view.View, error) {
	root, err := lang.ParseString(ctx, text, "repl.props")
	if err != nil {
		return nil, err
	}

	return view.New(root), nil
}

func newTestModel(t *testing.T) model {
	t.Helper()

	ctx := context.Background()

	v, err := testLoader(ctx, testSheet)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	m, err := newModel(ctx, v, testSheet, testLoader, NewHistory(""), log.Default())
	if err != nil {
		t.Fatalf("newModel: %v", err)
	}

	return m
}

func TestModel_Query(t *testing.T) {
	m := newTestModel(t)

	tests := []struct {
		input string
		want  []string
	}{
		{"name", []string{"app"}},
		{"cc.flags", []string{"-O2;-g"}},
		{"<% 1 + 2 %>", []string{"3"}},
		{"cc", []string{"cc.bin", "gcc", "cc.flags"}},
		{"cc.flag", []string{"error", "did you mean", "cc.flags"}},
	}

	for _, tt := range tests {
		got := m.query(tt.input)
		for _, want := range tt.want {
			if !strings.Contains(got, want) {
				t.Errorf("query(%q) = %q, missing %q", tt.input, got, want)
			}
		}
	}
}

func TestModel_Tree(t *testing.T) {
	m := newTestModel(t)

	got := m.tree.children("")
	if len(got) != 2 || got[0] != "name" || got[1] != "cc" {
		t.Errorf("children(\"\") = %v, want [name cc]", got)
	}
}

func TestInstruction(t *testing.T) {
	tests := []struct {
		input string
		body  string
		ok    bool
	}{
		{"<% 1 + 2 %>", "1 + 2", true},
		{"<%x%>", "x", true},
		{"<% 1", "", false},
		{"a.b", "", false},
	}

	for _, tt := range tests {
		body, ok := instruction(tt.input)
		if body != tt.body || ok != tt.ok {
			t.Errorf("instruction(%q) = (%q, %v), want (%q, %v)",
				tt.input, body, ok, tt.body, tt.ok)
		}
	}
}

func TestRun_NoLoader(t *testing.T) {
	if err := Run(context.Background(), "", nil, "", log.Default()); err != ErrNoLoader {
		t.Errorf("Run() error = %v, want %v", err, ErrNoLoader)
	}
}
