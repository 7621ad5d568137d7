package view

import "github.com/ardnew/psheet/lang"

// Predefined errors (sentinel values).
var (
	ErrMacroResolution = lang.NewError("macro resolution did not converge")
	ErrMacroCycle      = lang.NewError("macro refers to itself")
	ErrInstruction     = lang.NewError("failed to evaluate instruction")
	ErrNotAProperty    = lang.NewError("route does not name a property")
	ErrDecode          = lang.NewError("failed to decode view")
)
