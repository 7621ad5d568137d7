package cmd

import "github.com/ardnew/psheet/lang"

// Sentinel errors.
var (
	ErrMarshal       = lang.NewError("marshal output")
	ErrWriteOutput   = lang.NewError("write output")
	ErrInvalidDefine = lang.NewError("invalid definition")
	ErrStdinREPL     = lang.NewError("interactive session cannot read the sheet from stdin")
)
