package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Prefix is the base name of the running executable, used to derive the
// configuration directory and environment variable names. Debugger build
// names map to [Name] and leading dots are dropped.
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(func() string {
	id := os.Args[0]
	if exe, err := os.Executable(); err == nil {
		id = exe
	}

	id = filepath.Base(id)
	id = strings.TrimSuffix(id, filepath.Ext(id))
	id = debugBin.ReplaceAllString(id, Name)
	id = strings.TrimLeft(id, ".")

	if id == "" {
		return Name
	}

	return id
})

var debugBin = regexp.MustCompile(`^__debug_bin\d*$`)

// EnvVar returns the environment variable name for key, e.g. PSHEET_PATH.
func EnvVar(key string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z':
				return r - 'a' + 'A'
			case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				return r
			default:
				return '_'
			}
		}, s)
	}

	return clean(Prefix()) + "_" + clean(key)
}

// ConfigDir returns the directory holding user configuration.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return filepath.Join(userDir(os.UserConfigDir, ".config"), Prefix())
})

// CacheDir returns the directory holding transient files such as the
// interactive history.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return filepath.Join(userDir(os.UserCacheDir, ".cache"), Prefix())
})

// ConfigFile returns the path of the property sheet holding default
// command-line settings.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config"+SheetExt)
}

// HistoryFile returns the path of the interactive history.
func HistoryFile() string {
	return filepath.Join(CacheDir(), "history")
}

// userDir returns the result of lookup, falling back to sub of the home
// directory and then to the working directory.
func userDir(lookup func() (string, error), sub string) string {
	if dir, err := lookup(); err == nil {
		return dir
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, sub)
	}

	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}

	return "."
}
