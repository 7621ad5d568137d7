package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrReadInput                  = NewError("failed to read input")
	ErrTokenNotExpected           = NewError("token not expected")
	ErrInvalidSelectorDeclaration = NewError("invalid selector declaration")
	ErrInvalidImport              = NewError("invalid import")
	ErrMissingRValue              = NewError("missing rvalue")
	ErrChildExists                = NewError("child exists")
	ErrUnexpectedEnd              = NewError("unexpected end of input")
	ErrMaxDepthExceeded           = NewError("maximum nesting depth exceeded")
	ErrTypeMismatch               = NewError("type mismatch")
	ErrRouteNotFound              = NewError("route not found")
	ErrReplay                     = NewError("failed to evaluate property")
	ErrDetachedNode               = NewError("node does not belong to a root sheet")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an Error with the same message, so that
// sentinel checks survive [Error.Wrap] and [Error.With].
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg != "" && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ErrorCode classifies parse errors and diagnostics.
type ErrorCode int

const (
	CodeNone ErrorCode = iota
	CodeTokenNotExpected
	CodeInvalidSelectorDeclaration
	CodeInvalidImport
	CodeMissingRValue
	CodeChildExists
	CodeUnexpectedEnd
	CodeMaxDepthExceeded

	// Warnings.
	CodeAliasSelfReference
	CodeImportNotFound
)

var codeName = [...]string{
	CodeNone:                       "None",
	CodeTokenNotExpected:           "TokenNotExpected",
	CodeInvalidSelectorDeclaration: "InvalidSelectorDeclaration",
	CodeInvalidImport:              "InvalidImport",
	CodeMissingRValue:              "MissingRValue",
	CodeChildExists:                "ChildExists",
	CodeUnexpectedEnd:              "UnexpectedEnd",
	CodeMaxDepthExceeded:           "MaxDepthExceeded",
	CodeAliasSelfReference:         "AliasSelfReference",
	CodeImportNotFound:             "ImportNotFound",
}

// String returns the name of the code.
func (c ErrorCode) String() string {
	if c >= 0 && int(c) < len(codeName) {
		return codeName[c]
	}

	return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
}

// Err returns the sentinel error matching the code, or nil for warnings.
func (c ErrorCode) Err() error {
	switch c {
	case CodeTokenNotExpected:
		return ErrTokenNotExpected
	case CodeInvalidSelectorDeclaration:
		return ErrInvalidSelectorDeclaration
	case CodeInvalidImport:
		return ErrInvalidImport
	case CodeMissingRValue:
		return ErrMissingRValue
	case CodeChildExists:
		return ErrChildExists
	case CodeUnexpectedEnd:
		return ErrUnexpectedEnd
	case CodeMaxDepthExceeded:
		return ErrMaxDepthExceeded
	default:
		return nil
	}
}

// ParseError reports a fatal grammar violation. Parsing aborts at the first
// ParseError; no partial tree is returned.
type ParseError struct {
	Token    Token
	Filename string
	Code     ErrorCode
	Message  string
	Source   string // The original source input, when available
}

// Location returns where the error occurred.
func (e *ParseError) Location() SourceLocation {
	return e.Token.Location(e.Filename)
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var buf strings.Builder

	buf.WriteString(e.Location().String())
	buf.WriteString(": ")
	buf.WriteString(e.Code.String())

	if e.Message != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Message)
	}

	if snippet := e.snippet(); snippet != "" {
		buf.WriteByte('\n')
		buf.WriteString(snippet)
	}

	return buf.String()
}

// Diagnostic returns the error as an error diagnostic.
func (e *ParseError) Diagnostic() Diagnostic {
	return Diagnostic{
		Code:      e.Code,
		Severity:  SeverityError,
		Locations: []SourceLocation{e.Location()},
		Message:   "%s",
		Args:      []any{e.Message},
	}
}

// Unwrap returns the sentinel for the error code.
func (e *ParseError) Unwrap() error { return e.Code.Err() }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Code.String()),
		slog.String("message", e.Message),
		slog.String("location", e.Location().String()),
		slog.String("token", e.Token.String()),
	)
}

// snippet renders the offending source line with a caret under the column.
func (e *ParseError) snippet() string {
	lines := strings.Split(strings.ReplaceAll(e.Source, "\r\n", "\n"), "\n")

	row := e.Token.Row
	if e.Source == "" || row <= 0 || row > len(lines) {
		return ""
	}

	var src strings.Builder

	// Print the line with line number
	src.WriteString("  ")
	src.WriteString(strconv.Itoa(row))
	src.WriteString(" | ")
	src.WriteString(lines[row-1])
	src.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(strconv.Itoa(row))+5)

	if e.Token.Column > 0 {
		padding += strings.Repeat(" ", e.Token.Column-1)
	}

	src.WriteString(padding + "^")

	return src.String()
}
