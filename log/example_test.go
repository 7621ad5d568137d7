package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/psheet/log"
)

func ExampleMake() {
	logger := log.Make(os.Stdout,
		log.WithPretty(false),
		log.WithTimeLayout("none"))

	logger.Info("sheet loaded", slog.String("file", "build.props"))
	logger.Debug("not shown at the default level")
	// Output:
	// level=INFO msg="sheet loaded" file=build.props
}

func ExampleLogger_With() {
	logger := log.Make(os.Stdout,
		log.WithPretty(false),
		log.WithFormat(log.FormatJSON),
		log.WithTimeLayout("none"),
		log.WithLevel(log.LevelTrace))

	logger = logger.With(slog.String("route", "compiler.flags"))
	logger.TraceContext(context.Background(), "resolved", slog.Int("values", 2))
	// Output:
	// {"level":"TRACE","msg":"resolved","route":"compiler.flags","values":2}
}
