package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Info("discarded")
	l.TraceContext(context.Background(), "discarded")

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Errorf("zero logger reports %v %v", l.Level(), l.Format())
	}

	if w := l.With(slog.String("k", "v")); w.Logger != nil {
		t.Error("With on a zero logger should stay a no-op")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		log   func(Logger)
		want  bool
	}{
		{LevelInfo, func(l Logger) { l.Debug("m") }, false},
		{LevelInfo, func(l Logger) { l.Info("m") }, true},
		{LevelDebug, func(l Logger) { l.Trace("m") }, false},
		{LevelTrace, func(l Logger) { l.Trace("m") }, true},
		{LevelError, func(l Logger) { l.Warn("m") }, false},
		{LevelError, func(l Logger) { l.Error("m") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.level), WithPretty(false)))

			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("logged = %v, want %v: %q", got, tt.want, buf.String())
			}
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf,
		WithFormat(FormatJSON),
		WithPretty(false),
		WithLevel(LevelTrace),
		WithTimeLayout("none"),
	).With(slog.String("sheet", "a.props"))

	l.TraceContext(context.Background(), "token", slog.Int("row", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if rec["level"] != "TRACE" || rec["msg"] != "token" || rec["sheet"] != "a.props" || rec["row"] != 3.0 {
		t.Errorf("record = %v", rec)
	}

	if _, ok := rec["time"]; ok {
		t.Error("time should be omitted")
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithPretty(false), WithTimeLayout("none")).Info("here")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("source does not name the caller: %q", buf.String())
	}
}

func TestLogger_Wrap(t *testing.T) {
	var first, second bytes.Buffer

	l := Make(&first, WithLevel(LevelError))
	w := l.Wrap(WithOutput(&second), WithLevel(LevelDebug))

	if w.Level() != LevelDebug || l.Level() != LevelError {
		t.Fatalf("levels = %v, %v", w.Level(), l.Level())
	}

	w.Debug("moved")

	if first.Len() != 0 || !strings.Contains(second.String(), "moved") {
		t.Errorf("first=%q second=%q", first.String(), second.String())
	}
}

func TestPrettyHandler(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer

		Make(&buf, WithTimeLayout("none")).
			With(slog.String("file", "x.props")).
			Warn("missing import", slog.String("name", "a.props"), slog.Int("row", 2))

		want := "level=WARN msg=missing import file=x.props name=a.props row=2\n"
		if got := buf.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("multiline", func(t *testing.T) {
		var buf bytes.Buffer

		Make(&buf, WithTimeLayout("none"), WithFormat(FormatJSON)).Info("done", slog.Bool("ok", true))

		want := "{\n  level: INFO,\n  msg: done,\n  ok: true\n}\n"
		if got := buf.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("groups", func(t *testing.T) {
		var buf bytes.Buffer

		l := Make(&buf, WithTimeLayout("none"))
		slog.New(l.Handler().WithGroup("view")).Info("m", slog.String("route", "a"))

		if !strings.Contains(buf.String(), "view.route=a") {
			t.Errorf("got %q", buf.String())
		}
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"Info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info+2", LevelInfo + 2},
		{"bogus", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	var l Level
	if err := l.UnmarshalText([]byte("loud")); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("UnmarshalText error = %v", err)
	}

	if got := (LevelInfo + 2).String(); got != "info+2" {
		t.Errorf("String() = %q", got)
	}

	if got := slices.Collect(Levels()); !slices.Equal(got, []string{"trace", "debug", "info", "warn", "error"}) {
		t.Errorf("Levels() = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat(" JSON ") != FormatJSON || ParseFormat("text") != FormatText || ParseFormat("xml") != DefaultFormat {
		t.Error("ParseFormat mismatch")
	}

	var f Format
	if err := f.UnmarshalText([]byte("xml")); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("UnmarshalText error = %v", err)
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"text", "json"}) {
		t.Errorf("Formats() = %q", got)
	}
}

func TestDefault(t *testing.T) {
	saved := Default()
	t.Cleanup(func() { SetDefault(saved) })

	var buf bytes.Buffer

	SetDefault(Make(&buf, WithPretty(false), WithTimeLayout("none")))
	Config(WithLevel(LevelDebug))

	Debug("package level", slog.String("k", "v"))

	if got := buf.String(); !strings.Contains(got, "package level") || !strings.Contains(got, "k=v") {
		t.Errorf("got %q", got)
	}
}
