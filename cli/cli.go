package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/psheet/cli/cmd"
	"github.com/ardnew/psheet/pkg"
)

// CLI is the top-level command-line interface for psheet.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Tokens  cmd.Tokens  `cmd:"" help:"Print the token stream of a sheet"`
	Fmt     cmd.Fmt     `cmd:"" help:"Print the parsed tree of a sheet"`
	Routes  cmd.Routes  `cmd:"" help:"List the property routes of a sheet"`
	Get     cmd.Get     `cmd:"" help:"Resolve property routes"`
	Resolve cmd.Resolve `cmd:"" help:"Print every resolved property"`
	Repl    cmd.Repl    `cmd:"" help:"Explore a sheet interactively"`
}

// Run executes the psheet CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	vars := kong.Vars{
		"version":      pkg.Version,
		"pathVariable": pkg.EnvVar("path"),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags take effect before kong reports parse errors.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(load(ctx, configObject), pkg.ConfigFile()),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSearchPath(ctx, searchPath())

	defer cli.Log.start(ctx)()
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
