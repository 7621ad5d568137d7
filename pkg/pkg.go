//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of psheet embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name and the prefix of its environment variables
	// and configuration paths.
	Name = "psheet"
	// Description summarizes the command in help output.
	Description = "Cascading property sheet evaluator"
	// SheetExt is the conventional extension of property sheet files.
	SheetExt = ".props"
)

// AuthorInfo names an author of the project.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
