package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"
)

// Resolve evaluates every property of a sheet and prints the result as a
// nested document.
type Resolve struct {
	Resolution `embed:""`

	Format string `default:"json" enum:"json,yaml" help:"Output format (${enum})" short:"f"`
	Indent int    `default:"2"                     help:"Indent width, 0 for compact output" short:"n"`
}

// Run executes the resolve command.
func (r *Resolve) Run(ctx context.Context) error {
	v, err := r.Load(ctx)
	if err != nil {
		return err
	}

	m, err := v.ToMap(ctx)
	if err != nil {
		return err
	}

	var data []byte

	switch r.Format {
	case "yaml":
		opts := []yaml.EncodeOption{yaml.Flow(r.Indent == 0)}
		if r.Indent > 0 {
			opts = append(opts, yaml.Indent(r.Indent))
		}

		data, err = yaml.MarshalContext(ctx, m, opts...)

	default:
		if r.Indent > 0 {
			data, err = json.MarshalIndent(m, "", strings.Repeat(" ", r.Indent))
		} else {
			data, err = json.Marshal(m)
		}

		data = append(data, '\n')
	}

	if err != nil {
		return ErrMarshal.Wrap(err).With(slog.String("format", r.Format))
	}

	if _, err := streamsFrom(ctx).out.Write(data); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
