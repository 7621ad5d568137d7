package cmd

import (
	"context"
	"fmt"
)

// Routes lists the property routes of a sheet, generated matrix entries
// included.
type Routes struct {
	Resolution `embed:""`

	Values bool `help:"Print the resolved value of each route" short:"v"`
}

// Run executes the routes command.
func (r *Routes) Run(ctx context.Context) error {
	v, err := r.Load(ctx)
	if err != nil {
		return err
	}

	routes, err := v.Routes(ctx)
	if err != nil {
		return err
	}

	out := streamsFrom(ctx).out

	for _, route := range routes {
		line := route.String()

		if r.Values {
			val, err := v.Value(ctx, route)
			if err != nil {
				return err
			}

			line += " = " + val
		}

		if _, err := fmt.Fprintln(out, line); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}
