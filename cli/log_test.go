package cli

import (
	"testing"

	"github.com/ardnew/psheet/log"
)

func TestLogConfig_Scan(t *testing.T) {
	saved := log.Default()
	t.Cleanup(func() { log.SetDefault(saved) })

	tests := []struct {
		name   string
		args   []string
		level  log.Level
		format log.Format
		pretty bool
		caller bool
	}{
		{
			name:   "separate values",
			args:   []string{"get", "--log-level", "debug", "--log-format", "json", "x.props"},
			level:  log.LevelDebug,
			format: log.FormatJSON,
			pretty: true,
		},
		{
			name:   "assigned values",
			args:   []string{"--log-level=trace", "--no-log-pretty", "--log-caller"},
			level:  log.LevelTrace,
			format: log.DefaultFormat,
			caller: true,
		},
		{
			name:   "explicit booleans",
			args:   []string{"--log-pretty=false", "--no-log-caller=false"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
			caller: true,
		},
		{
			name:   "after terminator",
			args:   []string{"--", "--log-level=error"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
			pretty: true,
		},
		{
			name:   "invalid value",
			args:   []string{"--log-level=loud"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
			pretty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.SetDefault(log.Make(nil))

			f := logConfig{
				Level:  logLevel(log.DefaultLevel),
				Format: logFormat(log.DefaultFormat),
				Pretty: true,
			}
			f.scan(tt.args)

			if log.Level(f.Level) != tt.level || log.Default().Level() != tt.level {
				t.Errorf("level = %v (logger %v), want %v", log.Level(f.Level), log.Default().Level(), tt.level)
			}

			if log.Format(f.Format) != tt.format || log.Default().Format() != tt.format {
				t.Errorf("format = %v, want %v", log.Format(f.Format), tt.format)
			}

			if f.Pretty != tt.pretty || f.Caller != tt.caller {
				t.Errorf("pretty, caller = %v, %v; want %v, %v", f.Pretty, f.Caller, tt.pretty, tt.caller)
			}
		})
	}
}
