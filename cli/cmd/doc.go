// Package cmd implements the psheet subcommands.
//
// Every command reads one property sheet, given as a file name or "-" for
// standard input. Commands that evaluate properties also accept the
// resolution flags of [Resolution]:
//
//	-I, --include=DIR          search DIR for imports
//	-D, --define=NAME=VALUE    define a macro
//	-C, --collection=NAME=a,b  define a collection for matrix expansion
//
// Results are written to the output installed with [WithStreams], or to
// standard output.
package cmd
