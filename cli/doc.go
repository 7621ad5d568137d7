// Package cli contains the command line interface for psheet.
//
// # Usage
//
//	psheet [flags] <command> [args]
//
// Commands read a property sheet, apply the resolution flags shared by every
// command and print a projection of it:
//
//	psheet tokens build.props
//	psheet fmt yaml build.props
//	psheet get -D arch=arm64 build.props compiler.flags
//	psheet resolve --format json -C Platform=win,mac build.props
//	psheet repl build.props
//
// # Configuration
//
// Flag defaults are read from the "config" object of the property sheet at
// [pkg.ConfigFile]. Properties name flags, optionally grouped by prefix:
//
//	config {
//	    log { level = debug; pretty = false; }
//	    include : "/opt/sheets";
//	}
//
// Import directories listed in the PSHEET_PATH environment variable are
// searched after those given with --include.
//
// # Logging Options
//
//   - --log-level: minimum log level (trace, debug, info, warn, error)
//   - --log-format: log output format (text, json)
//   - --log-time: timestamp layout (RFC3339, Kitchen, none, ...)
//   - --log-caller: include caller information
//   - --log-pretty: colorized output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: profile kind (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: profile output directory
package cli
