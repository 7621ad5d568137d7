package pkg

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestMetadata(t *testing.T) {
	if Name != "psheet" {
		t.Errorf("Name = %q", Name)
	}

	if Version == "" || strings.ContainsAny(Version, " \n") {
		t.Errorf("Version = %q", Version)
	}

	for i, a := range Author {
		if a.Name == "" && a.Email == "" {
			t.Errorf("Author[%d] is empty", i)
		}
	}
}

func TestEnvVar(t *testing.T) {
	got := EnvVar("path")
	if !strings.HasSuffix(got, "_PATH") || strings.ToUpper(got) != got {
		t.Errorf("EnvVar(path) = %q", got)
	}

	if strings.ContainsAny(got, ".-") {
		t.Errorf("EnvVar(path) = %q contains separators", got)
	}
}

func TestPaths(t *testing.T) {
	if filepath.Base(ConfigDir()) != Prefix() || filepath.Base(CacheDir()) != Prefix() {
		t.Errorf("ConfigDir=%q CacheDir=%q Prefix=%q", ConfigDir(), CacheDir(), Prefix())
	}

	if filepath.Dir(ConfigFile()) != ConfigDir() || filepath.Ext(ConfigFile()) != SheetExt {
		t.Errorf("ConfigFile = %q", ConfigFile())
	}

	if filepath.Dir(HistoryFile()) != CacheDir() {
		t.Errorf("HistoryFile = %q", HistoryFile())
	}
}
