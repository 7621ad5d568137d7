package repl

import "github.com/ardnew/psheet/lang"

// Sentinel errors.
var (
	ErrOutOfBounds  = lang.NewError("history index out of range")
	ErrEditDeclined = lang.NewError("edit declined")
	ErrNoLoader     = lang.NewError("no sheet loader")
)
