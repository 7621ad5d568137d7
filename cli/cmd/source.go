package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/psheet/lang"
	"github.com/ardnew/psheet/log"
	"github.com/ardnew/psheet/view"
)

// stdinSource is the source name that reads standard input.
const stdinSource = "-"

// Input names the sheet a command reads and where its imports are found.
type Input struct {
	Include []string `help:"Search directory for imports, ahead of those in ${pathVariable} (repeatable)" placeholder:"DIR" short:"I" type:"path"`

	Source string `arg:"" help:"Sheet file or '-' for stdin." name:"file"`
}

// SearchPath returns the import directories: those given with --include,
// followed by the directories of the environment search path list, each
// once.
func (in Input) SearchPath(ctx context.Context) []string {
	list := mung.Make(
		mung.WithSubjectItems(searchPathFrom(ctx)),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(in.Include...),
	).String()

	var (
		dirs []string
		seen = make(map[string]bool)
	)

	for _, dir := range filepath.SplitList(list) {
		if dir != "" && !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	return dirs
}

// filename is the name the sheet is parsed under. Standard input has no name,
// so its relative imports resolve from the working directory.
func (in Input) filename() string {
	if in.Source == stdinSource {
		return ""
	}

	return in.Source
}

// Read returns the text of the sheet.
func (in Input) Read(ctx context.Context) (string, error) {
	r := streamsFrom(ctx).in

	if in.Source != stdinSource {
		f, err := os.Open(in.Source)
		if err != nil {
			return "", lang.ErrReadInput.Wrap(err).With(slog.String("path", in.Source))
		}
		defer f.Close()

		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", lang.ErrReadInput.Wrap(err).With(slog.String("path", in.Source))
	}

	return string(data), nil
}

// Parse reads and parses the sheet with its imports.
func (in Input) Parse(ctx context.Context) (*lang.RootPropertySheet, error) {
	text, err := in.Read(ctx)
	if err != nil {
		return nil, err
	}

	return in.ParseString(ctx, text)
}

// ParseString parses text as if it were read from the sheet.
func (in Input) ParseString(ctx context.Context, text string) (*lang.RootPropertySheet, error) {
	logger := log.Default()

	return lang.ParseString(ctx, text, in.filename(),
		lang.WithLogger(logger),
		lang.WithSearchPath(in.SearchPath(ctx)...),
	)
}

// Resolution adds the macro and collection definitions used to evaluate a
// sheet.
type Resolution struct {
	Input `embed:""`

	Define     map[string]string `help:"Define a macro" placeholder:"NAME=VALUE" short:"D"`
	Collection map[string]string `help:"Define a collection of comma-separated items" placeholder:"NAME=a,b,c" short:"C"`
}

// View returns a view of root evaluated with the defined macros and
// collections.
func (r Resolution) View(root *lang.RootPropertySheet) (*view.View, error) {
	for name := range r.Define {
		if strings.TrimSpace(name) == "" {
			return nil, ErrInvalidDefine.With(slog.String("flag", "define"))
		}
	}

	collections := make(view.Collections, len(r.Collection))

	for name, list := range r.Collection {
		if strings.TrimSpace(name) == "" {
			return nil, ErrInvalidDefine.With(slog.String("flag", "collection"))
		}

		var items []any

		for item := range strings.SplitSeq(list, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}

		collections[name] = items
	}

	return view.New(root,
		view.WithDefines(r.Define),
		view.WithCollections(collections),
		view.WithLogger(log.Default()),
	), nil
}

// Load reads and parses the sheet and returns its view.
func (r Resolution) Load(ctx context.Context) (*view.View, error) {
	root, err := r.Parse(ctx)
	if err != nil {
		return nil, err
	}

	return r.View(root)
}
