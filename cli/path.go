package cli

import (
	"os"

	"github.com/ardnew/psheet/pkg"
)

// dirMode is the permission mode of created runtime directories.
const dirMode os.FileMode = 0o700

// configObject names the object of the configuration sheet whose properties
// supply flag defaults.
const configObject = "config"

// mkdirAllRequired creates all required runtime directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return err
		}
	}

	return nil
}

// searchPath returns the import search path list from the environment.
func searchPath() string {
	return os.Getenv(pkg.EnvVar("path"))
}
