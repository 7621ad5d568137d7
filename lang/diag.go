package lang

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/psheet/log"
)

// Severity grades a [Diagnostic].
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the name of the severity.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}

	return "warning"
}

// Diagnostic is a structured event reported while parsing. Warnings never
// abort a parse. An error diagnostic is reported for the failure that
// aborts it, which is also returned from the parse.
type Diagnostic struct {
	Code      ErrorCode
	Severity  Severity
	Locations []SourceLocation
	Message   string
	Args      []any
}

// String formats the diagnostic as "loc: severity: message".
func (d Diagnostic) String() string {
	msg := d.Message
	if len(d.Args) > 0 {
		msg = fmt.Sprintf(msg, d.Args...)
	}

	if len(d.Locations) == 0 {
		return d.Severity.String() + ": " + msg
	}

	return d.Locations[0].String() + ": " + d.Severity.String() + ": " + msg
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", d.Code.String()),
		slog.String("severity", d.Severity.String()),
	}

	for _, loc := range d.Locations {
		attrs = append(attrs, slog.String("location", loc.String()))
	}

	return slog.GroupValue(attrs...)
}

// DiagnosticHandler receives diagnostics as they are reported.
type DiagnosticHandler func(ctx context.Context, d Diagnostic)

// logDiagnostic is the default handler; it writes warnings to logger.
func logDiagnostic(logger log.Logger) DiagnosticHandler {
	return func(ctx context.Context, d Diagnostic) {
		msg := d.Message
		if len(d.Args) > 0 {
			msg = fmt.Sprintf(msg, d.Args...)
		}

		if d.Severity == SeverityError {
			logger.ErrorContext(ctx, msg, slog.Any("diagnostic", d))

			return
		}

		logger.WarnContext(ctx, msg, slog.Any("diagnostic", d))
	}
}
