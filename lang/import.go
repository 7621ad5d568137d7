package lang

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/klauspost/readahead"
)

// UserSuffix names the optional override file read after a root sheet.
const UserSuffix = ".user"

// FileResolver locates and opens imported sheets.
type FileResolver interface {
	// Resolve returns the path of the sheet referenced by name from a sheet
	// located in dir. A missing file yields an error matching
	// [fs.ErrNotExist].
	Resolve(name, dir string) (string, error)
	// Open opens a resolved path for reading.
	Open(path string) (io.ReadCloser, error)
}

// SearchPath resolves bare import names in the importing sheet's directory
// and then in each of Dirs, in order.
type SearchPath struct {
	Dirs []string
}

// NewSearchPath returns a resolver searching dirs after the importing
// sheet's directory.
func NewSearchPath(dirs ...string) *SearchPath {
	return &SearchPath{Dirs: dirs}
}

// Resolve implements [FileResolver].
func (sp *SearchPath) Resolve(name, dir string) (string, error) {
	if isPathName(name) {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}

		if err := isFile(path); err != nil {
			return "", err
		}

		return path, nil
	}

	for _, d := range append([]string{dir}, sp.Dirs...) {
		path := filepath.Join(d, name)
		if isFile(path) == nil {
			return path, nil
		}
	}

	return "", &fs.PathError{Op: "resolve", Path: name, Err: fs.ErrNotExist}
}

// Open implements [FileResolver].
func (sp *SearchPath) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func isFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return &fs.PathError{Op: "resolve", Path: path, Err: fs.ErrNotExist}
	}

	return nil
}

// isPathName reports whether name carries a directory component.
func isPathName(name string) bool {
	return strings.ContainsAny(name, `/\`) || filepath.IsAbs(name)
}

// validImportName rejects names with NUL or other control characters.
func validImportName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}

	return !strings.ContainsFunc(name, unicode.IsControl)
}

// canonicalPath returns the absolute, symlink-free form of path.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}

	return abs
}

// readSource reads all of r through a read-ahead buffer.
func readSource(r io.Reader) (string, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadInput.Wrap(err)
	}

	return string(data), nil
}

// dirOf returns the directory used to resolve imports of filename.
func dirOf(filename string) string {
	if filename == "" {
		return "."
	}

	return filepath.Dir(filename)
}

// importSheet resolves name from the sheet being parsed by p and parses it
// into the root's registry, chaining it beneath p's sheet.
func (p *parser) importSheet(tok Token, name string) error {
	if !validImportName(name) {
		return p.fail(tok, CodeInvalidImport, "invalid import path "+quote(name))
	}

	res := p.root.opts.resolver

	path, err := res.Resolve(name, dirOf(p.sheet.Filename))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || isPathName(name) {
			return p.fail(tok, CodeInvalidImport, err.Error())
		}

		p.root.report(p.ctx, Diagnostic{
			Code:      CodeImportNotFound,
			Severity:  SeverityWarning,
			Locations: []SourceLocation{tok.Location(p.filename)},
			Message:   "import %q not found",
			Args:      []any{name},
		})

		return nil
	}

	imp, err := p.root.load(p.ctx, path)
	if err != nil {
		var pe *ParseError
		if !errors.As(err, &pe) {
			p.root.report(p.ctx, Diagnostic{
				Code:      CodeInvalidImport,
				Severity:  SeverityError,
				Locations: []SourceLocation{tok.Location(p.filename)},
				Message:   "cannot import %q: %v",
				Args:      []any{name, err},
			})
		}

		return err
	}

	if imp != nil && imp != p.sheet {
		p.sheet.addImport(imp)
	}

	return nil
}

// load parses the sheet at path once per root. A path already registered
// returns the registered sheet without reparsing.
func (r *RootPropertySheet) load(ctx context.Context, path string) (*PropertySheet, error) {
	key := canonicalPath(path)

	if have, ok := r.registry[key]; ok {
		r.opts.logger.TraceContext(ctx, "import already loaded",
			slog.String("path", key))

		return have, nil
	}

	f, err := r.opts.resolver.Open(path)
	if err != nil {
		return nil, ErrInvalidImport.Wrap(err).With(slog.String("path", path))
	}

	text, err := readSource(f)
	_ = f.Close()

	if err != nil {
		return nil, err
	}

	sheet := newPropertySheet(r, path)

	// Register before parsing so that import cycles terminate.
	r.registry[key] = sheet
	r.order = append(r.order, sheet)

	r.opts.logger.TraceContext(ctx, "import resolved",
		slog.String("path", key),
		slog.Int("source_bytes", len(text)))

	if err := parseSheet(ctx, sheet, tokenize(text), text); err != nil {
		return nil, err
	}

	return sheet, nil
}

// loadUser imports "<filename>.user" as the lowest-precedence import of the
// root sheet, when it exists.
func (r *RootPropertySheet) loadUser(ctx context.Context) error {
	if !r.opts.userImports || r.Filename == "" {
		return nil
	}

	path := r.Filename + UserSuffix
	if isFile(path) != nil {
		return nil
	}

	imp, err := r.load(ctx, path)
	if err != nil {
		return err
	}

	if imp != r.PropertySheet {
		r.addImport(imp)
	}

	return nil
}
