package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/psheet/lang"
	"github.com/ardnew/psheet/log"
	"github.com/ardnew/psheet/pkg"
	"github.com/ardnew/psheet/view"
)

// load returns a [kong.ConfigurationLoader] reading flag defaults from the
// properties of the object name in a property sheet.
//
// Nested objects join their selectors with hyphens, so both of these set
// --log-level:
//
//	config { log-level = debug; }
//	config { log { level = debug; } }
//
// Properties with several values are joined with commas, matching kong's
// separator for slice flags. Command-line flags override config values.
// A sheet that fails to parse or resolve is reported and ignored.
func load(ctx context.Context, name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		logger := log.Default().With(slog.String("config", pkg.ConfigFile()))

		root, err := lang.ParseReader(ctx, r, pkg.ConfigFile(),
			lang.WithLogger(logger),
			lang.WithUserImports(false),
		)
		if err != nil {
			logger.WarnContext(ctx, "ignoring configuration", slog.Any("error", err))

			return config{}, nil
		}

		m, err := view.New(root, view.WithLogger(logger)).ToMap(ctx)
		if err != nil {
			logger.WarnContext(ctx, "ignoring configuration", slog.Any("error", err))

			return config{}, nil
		}

		obj, ok := m[name].(map[string]any)
		if !ok {
			return config{}, nil
		}

		cfg := make(config)
		cfg.flatten("", obj)

		logger.TraceContext(ctx, "configuration loaded", slog.Int("flags", len(cfg)))

		return cfg, nil
	}
}

// config implements [kong.Resolver] over flag names.
type config map[string]any

func (c config) flatten(prefix string, m map[string]any) {
	for key, val := range m {
		if prefix != "" {
			key = prefix + "-" + key
		}

		switch val := val.(type) {
		case map[string]any:
			c.flatten(key, val)

		case []any:
			items := make([]string, 0, len(val))
			for _, item := range val {
				if s, ok := item.(string); ok {
					items = append(items, s)
				}
			}

			c[key] = strings.Join(items, ",")

		default:
			c[key] = val
		}
	}
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver]. Underscores may stand in for the
// hyphens of a flag name.
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	if value, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}
