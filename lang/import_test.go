package lang

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// writeSheets writes each named sheet below dir.
func writeSheets(t *testing.T, dir string, sheets map[string]string) {
	t.Helper()

	for name, text := range sheets {
		path := filepath.Join(dir, name)

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestImport_CascadeReplay(t *testing.T) {
	dir := t.TempDir()
	writeSheets(t, dir, map[string]string{
		"common.props": `foo { bar : "a","b"; }`,
		"main.props":   `@import "common.props"; foo { bar += "z"; }`,
	})

	root, err := ParseFile(context.Background(), filepath.Join(dir, "main.props"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	if len(root.Imports()) != 1 {
		t.Fatalf("Imports() = %d, want 1", len(root.Imports()))
	}

	var sheets []*PropertySheet
	for s := range root.Cascade() {
		sheets = append(sheets, s)
	}

	var acc []string

	for i := len(sheets) - 1; i >= 0; i-- {
		acc, err = propertyAt(t, sheets[i].ObjectNode, "foo.bar").Replay(acc, literalContext{}, nil)
		if err != nil {
			t.Fatal(err)
		}
	}

	if want := []string{"a", "b", "z"}; !slices.Equal(acc, want) {
		t.Errorf("cascaded foo.bar = %q, want %q", acc, want)
	}
}

func TestImport_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeSheets(t, dir, map[string]string{
		"a.props":    `x = 1;`,
		"main.props": `@import "a.props"; @import "./a.props"; @import a.props;`,
	})

	root, err := ParseFile(context.Background(), filepath.Join(dir, "main.props"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	if n := len(root.Imports()); n != 1 {
		t.Errorf("Imports() = %d, want 1", n)
	}

	if n := len(root.Sheets()); n != 2 {
		t.Errorf("Sheets() = %d, want 2", n)
	}
}

func TestImport_Cycle(t *testing.T) {
	dir := t.TempDir()
	writeSheets(t, dir, map[string]string{
		"a.props": `@import "b.props"; x = 1;`,
		"b.props": `@import "a.props"; y = 2;`,
	})

	root, err := ParseFile(context.Background(), filepath.Join(dir, "a.props"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	var n int
	for range root.Cascade() {
		n++
	}

	if n != 2 {
		t.Errorf("cascade visits %d sheets, want 2", n)
	}
}

func TestImport_Missing(t *testing.T) {
	dir := t.TempDir()

	t.Run("bare name warns", func(t *testing.T) {
		writeSheets(t, dir, map[string]string{"warn.props": `@import "missing.props"; x = 1;`})

		var diags []Diagnostic

		root, err := ParseFile(context.Background(), filepath.Join(dir, "warn.props"),
			WithDiagnostics(func(_ context.Context, d Diagnostic) { diags = append(diags, d) }))
		if err != nil {
			t.Fatalf("ParseFile: %v", err)
		}

		if len(diags) != 1 || diags[0].Code != CodeImportNotFound {
			t.Errorf("diagnostics = %v, want one ImportNotFound", diags)
		}

		if !strings.Contains(diags[0].String(), `"missing.props"`) {
			t.Errorf("String() = %q", diags[0].String())
		}

		if !root.Properties().Has(NewSelector("x")) {
			t.Error("parse did not continue after missing import")
		}
	})

	t.Run("path fails", func(t *testing.T) {
		writeSheets(t, dir, map[string]string{"fail.props": `@import "sub/missing.props";`})

		_, err := ParseFile(context.Background(), filepath.Join(dir, "fail.props"))
		if !errors.Is(err, ErrInvalidImport) {
			t.Errorf("error = %v, want ErrInvalidImport", err)
		}
	})
}

// failingOpen resolves like a search path but cannot open anything.
type failingOpen struct{ SearchPath }

func (failingOpen) Open(string) (io.ReadCloser, error) { return nil, os.ErrPermission }

func TestImport_ErrorDiagnostics(t *testing.T) {
	dir := t.TempDir()
	writeSheets(t, dir, map[string]string{
		"bad.props":  `a = ;`,
		"main.props": `@import "bad.props"; x = 1;`,
	})

	collect := func(diags *[]Diagnostic) Option {
		return WithDiagnostics(func(_ context.Context, d Diagnostic) {
			*diags = append(*diags, d)
		})
	}

	t.Run("imported sheet fails", func(t *testing.T) {
		var diags []Diagnostic

		_, err := ParseFile(context.Background(), filepath.Join(dir, "main.props"), collect(&diags))
		if err == nil {
			t.Fatal("ParseFile succeeded")
		}

		if len(diags) != 1 || diags[0].Severity != SeverityError {
			t.Fatalf("diagnostics = %v, want one error", diags)
		}

		if loc := diags[0].Locations[0]; filepath.Base(loc.Filename) != "bad.props" {
			t.Errorf("location = %v, want in bad.props", loc)
		}
	})

	t.Run("open fails", func(t *testing.T) {
		var diags []Diagnostic

		text := `@import "bad.props";`
		_, err := ParseString(context.Background(), text, filepath.Join(dir, "inline.props"),
			WithResolver(&failingOpen{}), collect(&diags))
		if !errors.Is(err, ErrInvalidImport) {
			t.Fatalf("error = %v, want ErrInvalidImport", err)
		}

		if len(diags) != 1 || diags[0].Code != CodeInvalidImport || diags[0].Severity != SeverityError {
			t.Errorf("diagnostics = %v, want one InvalidImport error", diags)
		}
	})
}

func TestImport_SearchPath(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	writeSheets(t, dir1, map[string]string{"main.props": `@import "lib.props";`})
	writeSheets(t, dir2, map[string]string{"lib.props": `z = 1;`})

	root, err := ParseFile(context.Background(), filepath.Join(dir1, "main.props"),
		WithSearchPath(dir2))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	if len(root.Imports()) != 1 {
		t.Fatalf("Imports() = %d, want 1", len(root.Imports()))
	}

	propertyAt(t, root.Imports()[0].ObjectNode, "z")
}

func TestImport_UserFile(t *testing.T) {
	dir := t.TempDir()
	writeSheets(t, dir, map[string]string{
		"lib.props":       `l = 1;`,
		"main.props":      `@import "lib.props"; x = 1;`,
		"main.props.user": `x = 2; y = 3;`,
	})

	main := filepath.Join(dir, "main.props")

	root, err := ParseFile(context.Background(), main)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	imports := root.Imports()
	if len(imports) != 2 {
		t.Fatalf("Imports() = %d, want 2", len(imports))
	}

	if last := imports[len(imports)-1]; !strings.HasSuffix(last.Filename, UserSuffix) {
		t.Errorf("last import = %q, want the %s file", last.Filename, UserSuffix)
	}

	root, err = ParseFile(context.Background(), main, WithUserImports(false))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	if len(root.Imports()) != 1 {
		t.Errorf("Imports() = %d with user imports disabled, want 1", len(root.Imports()))
	}
}

func TestParseReader(t *testing.T) {
	root, err := ParseReader(context.Background(), strings.NewReader(`r = 1;`), "")
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	propertyAt(t, root.ObjectNode, "r")

	if root.Source() != `r = 1;` {
		t.Errorf("Source() = %q", root.Source())
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(context.Background(), filepath.Join(t.TempDir(), "none.props"))
	if !errors.Is(err, ErrReadInput) {
		t.Errorf("error = %v, want ErrReadInput", err)
	}
}
