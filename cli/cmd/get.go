package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/psheet/lang"
)

// Get resolves property routes and prints their values.
type Get struct {
	Resolution `embed:""`

	Route []string `arg:"" help:"Dotted route of a property, e.g. compiler.flags" name:"route"`

	List  bool `help:"Print each value on its own line"  short:"l"`
	Names bool `help:"Prefix each result with its route" short:"r"`
}

// Run executes the get command.
func (g *Get) Run(ctx context.Context) error {
	v, err := g.Load(ctx)
	if err != nil {
		return err
	}

	out := streamsFrom(ctx).out

	for _, route := range g.Route {
		vals, err := v.Get(ctx, route)
		if err != nil {
			if errors.Is(err, lang.ErrRouteNotFound) {
				if near := v.Suggest(route); len(near) > 0 {
					return lang.WrapError(err).With(slog.Any("suggestions", near))
				}
			}

			return err
		}

		sep := lang.ScalarSeparator
		if g.List {
			sep = "\n"
		}

		text := strings.Join(vals, sep)
		if g.Names {
			text = route + " = " + text
		}

		if _, err := fmt.Fprintln(out, text); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}
