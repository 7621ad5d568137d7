package cmd

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

type (
	kongKey       struct{}
	searchPathKey struct{}
	streamsKey    struct{}
)

// streams are the standard input and output of a command.
type streams struct {
	in  io.Reader
	out io.Writer
}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, kongKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(kongKey{}).(*kong.Context)

	return ktx
}

// WithSearchPath returns a new context.Context holding a path list of
// directories searched for imports after those named on the command line.
func WithSearchPath(ctx context.Context, list string) context.Context {
	return context.WithValue(ctx, searchPathKey{}, list)
}

func searchPathFrom(ctx context.Context) string {
	list, _ := ctx.Value(searchPathKey{}).(string)

	return list
}

// WithStreams returns a new context.Context whose commands read standard
// input from in and write results to out. A nil in reads [os.Stdin]; a nil
// out writes to the kong application's output.
func WithStreams(ctx context.Context, in io.Reader, out io.Writer) context.Context {
	return context.WithValue(ctx, streamsKey{}, streams{in: in, out: out})
}

func streamsFrom(ctx context.Context) streams {
	s, _ := ctx.Value(streamsKey{}).(streams)

	if s.in == nil {
		s.in = os.Stdin
	}

	if s.out == nil {
		s.out = os.Stdout

		if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
			s.out = ktx.Stdout
		}
	}

	return s
}
