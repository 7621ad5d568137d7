// Package log is the structured logger used throughout psheet. It wraps
// [log/slog] with a trace level below debug, configurable timestamp
// layouts, and a colorized handler for terminals.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithTimeLayout("kitchen"))
//	logger.TraceContext(ctx, "parsed", slog.String("file", name))
//
// The zero [Logger] discards everything. Parsers and views accept a Logger
// through an option and stay silent without one.
//
// [Level] and [Format] implement [encoding.TextUnmarshaler], so they can
// be bound directly to command-line flags.
package log
