package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/psheet/lang"
)

// Fmt prints the parsed, unevaluated tree of a sheet.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as native property sheet syntax (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
}

// Native formats a sheet as native property sheet syntax.
type Native struct {
	Input `embed:""`

	Indent int `default:"4" help:"Indent width, 0 for a single line" short:"n"`
}

// Run executes the fmt native command.
func (f *Native) Run(ctx context.Context) error {
	root, err := f.Parse(ctx)
	if err != nil {
		return lang.WrapError(err).With(slog.String("format", "native"))
	}

	return root.Format(ctx, streamsFrom(ctx).out, f.Indent)
}

// JSON formats a sheet as JSON.
type JSON struct {
	Input `embed:""`

	Indent int `default:"2" help:"Indent width, 0 for compact output" short:"n"`
}

// Run executes the fmt json command.
func (j *JSON) Run(ctx context.Context) error {
	root, err := j.Parse(ctx)
	if err != nil {
		return lang.WrapError(err).With(slog.String("format", "json"))
	}

	if err := root.FormatJSON(ctx, streamsFrom(ctx).out, j.Indent); err != nil {
		return ErrMarshal.Wrap(err).With(slog.String("format", "json"))
	}

	return nil
}

// YAML formats a sheet as YAML.
type YAML struct {
	Input `embed:""`

	Indent int `default:"2" help:"Indent width, 0 for flow style" short:"n"`
}

// Run executes the fmt yaml command.
func (y *YAML) Run(ctx context.Context) error {
	root, err := y.Parse(ctx)
	if err != nil {
		return lang.WrapError(err).With(slog.String("format", "yaml"))
	}

	if err := root.FormatYAML(ctx, streamsFrom(ctx).out, y.Indent); err != nil {
		return ErrMarshal.Wrap(err).With(slog.String("format", "yaml"))
	}

	return nil
}
