package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

func resolveFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	val, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	if err != nil {
		t.Fatalf("Resolve(%q): %v", name, err)
	}

	return val
}

func TestLoad(t *testing.T) {
	const sheet = `
config {
	log-level = debug;
	log { format = json; }
	log_caller = true;
	include : "a", "b";
}
other { log-level = error; }
`

	r, err := load(context.Background(), configObject)(strings.NewReader(sheet))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log-format", "json"},
		{"log-caller", "true"},
		{"include", "a,b"},
		{"pprof-mode", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, resolveFlag(t, r, tt.flag)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Ignored(t *testing.T) {
	tests := []struct {
		name  string
		sheet string
	}{
		{"parse error", `config { log-level = debug;`},
		{"no config object", `settings { log-level = debug; }`},
		{"config is a property", `config = debug;`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := load(context.Background(), configObject)(strings.NewReader(tt.sheet))
			if err != nil {
				t.Fatalf("load: %v", err)
			}

			if got := resolveFlag(t, r, "log-level"); got != nil {
				t.Errorf("log-level = %v, want nil", got)
			}
		})
	}
}
