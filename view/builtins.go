package view

// The built-in environment available to every embedded instruction. It is
// initialized once per process and cloned on every access, so callers may
// add permutation bindings without affecting the shared copy.

import (
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/ardnew/mung"

	"github.com/ardnew/psheet/lang"
)

//nolint:gochecknoglobals
var (
	builtinOnce sync.Once
	builtins    map[string]any
)

func builtinEnv() map[string]any {
	builtinOnce.Do(func() {
		builtins = map[string]any{
			"platform": hostPlatform(),
			"hostname": hostname(),
			"cwd":      workingDir,
			"env":      os.Getenv,

			"file": map[string]any{
				"exists": fileExists,
				"isDir":  fileIsDir,
			},

			"path": map[string]any{
				"abs":  pathAbs,
				"cat":  filepath.Join,
				"base": filepath.Base,
				"dir":  filepath.Dir,
				"ext":  filepath.Ext,
				"rel":  pathRel,
			},

			"list": map[string]any{
				"prefix": listPrefix,
				"suffix": listSuffix,
				"split":  listSplit,
			},
		}
	})

	return maps.Clone(builtins)
}

// Builtins returns the built-in instruction environment. The returned map
// is a copy, but the nested namespace maps are shared and must not be
// modified.
func Builtins() map[string]any { return builtinEnv() }

// BuiltinKeys returns the sorted top-level names of the instruction
// environment, excluding permutation bindings.
func BuiltinKeys() []string {
	keys := slices.Collect(maps.Keys(builtinEnv()))
	keys = append(keys, "each", "macro")

	slices.Sort(keys)

	return keys
}

// Platform names the host operating system and architecture.
type Platform struct {
	OS   string
	Arch string
}

// String formats the platform as os/arch.
func (p Platform) String() string { return p.OS + "/" + p.Arch }

// hostPlatform honors GOOS and GOARCH overrides from the environment.
func hostPlatform() Platform {
	p := Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}

	if o, ok := os.LookupEnv("GOOS"); ok {
		p.OS = o
	}

	if a, ok := os.LookupEnv("GOARCH"); ok {
		p.Arch = a
	}

	return p
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}

	return name
}

func workingDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return filepath.Join(from, to)
	}

	return p
}

// listPrefix prepends items to a ';'-separated list. Items already present
// move to the front.
func listPrefix(list string, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(lang.ScalarSeparator),
		mung.WithPrefixItems(items...),
	).String()
}

// listSuffix appends items to a ';'-separated list. Items already present
// move to the end.
func listSuffix(list string, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(lang.ScalarSeparator),
		mung.WithSuffixItems(items...),
	).String()
}

// listSplit splits a ';'-separated list, dropping empty and repeated items.
func listSplit(list string) []string {
	return slices.Collect(mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(lang.ScalarSeparator),
	).All())
}
