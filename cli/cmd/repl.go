package cmd

import (
	"context"

	"github.com/ardnew/psheet/cli/cmd/repl"
	"github.com/ardnew/psheet/log"
	"github.com/ardnew/psheet/pkg"
	"github.com/ardnew/psheet/view"
)

// Repl explores a sheet interactively. The sheet is re-read from its text
// after every edit, so it must be a file.
type Repl struct {
	Resolution `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	if r.Source == stdinSource {
		return ErrStdinREPL
	}

	text, err := r.Read(ctx)
	if err != nil {
		return err
	}

	load := func(ctx context.Context, text string) (*view.View, error) {
		root, err := r.ParseString(ctx, text)
		if err != nil {
			return nil, err
		}

		return r.View(root)
	}

	return repl.Run(ctx, text, load, pkg.HistoryFile(), log.Default())
}
