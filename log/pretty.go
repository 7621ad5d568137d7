package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of a pretty handler. Styles render plain text
// when the output is not a color terminal.
type palette struct {
	key, str, num, time, src lipgloss.Style
	levels                   map[slog.Level]lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)

	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		time: fg("4"),
		src:  fg("5"),
		levels: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): fg("8"),
			slog.LevelDebug:        fg("4"),
			slog.LevelInfo:         fg("2"),
			slog.LevelWarn:         fg("3").Bold(true),
			slog.LevelError:        fg("1").Bold(true),
		},
	}
}

func (p palette) level(l slog.Level) lipgloss.Style {
	best := slog.Level(LevelTrace)

	for k := range p.levels {
		if k <= l && k > best {
			best = k
		}
	}

	return p.levels[best]
}

// prettyHandler writes colorized records, either on one line as key=value
// pairs or, when multiline, as an indented block of key: value lines.
type prettyHandler struct {
	opts      slog.HandlerOptions
	mu        *sync.Mutex
	w         io.Writer
	colors    palette
	multiline bool
	attrs     []slog.Attr
	groups    []string
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, multiline bool) *prettyHandler {
	return &prettyHandler{
		opts:      *opts,
		mu:        &sync.Mutex{},
		w:         w,
		colors:    newPalette(w),
		multiline: multiline,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	n := 0
	emit := func(groups []string, a slog.Attr) {
		if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
			a = h.opts.ReplaceAttr(groups, a)
		}

		if a.Equal(slog.Attr{}) {
			return
		}

		h.writeAttr(&buf, a, n)
		n++
	}

	if !r.Time.IsZero() {
		emit(nil, slog.Time(slog.TimeKey, r.Time))
	}

	emit(nil, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if fs := runtimeFrame(r.PC); fs != "" {
			emit(nil, slog.String(slog.SourceKey, fs))
		}
	}

	emit(nil, slog.String(slog.MessageKey, r.Message))

	for _, a := range h.attrs {
		emit(nil, a)
	}

	r.Attrs(func(a slog.Attr) bool {
		emit(h.groups, h.qualify(a))

		return true
	})

	if h.multiline {
		buf.WriteString("\n}")
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clone(h.attrs)

	for _, a := range attrs {
		c.attrs = append(c.attrs, h.qualify(a))
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(slices.Clip(h.groups), name)

	return &c
}

// qualify prefixes the key of a with the open groups.
func (h *prettyHandler) qualify(a slog.Attr) slog.Attr {
	for i := len(h.groups) - 1; i >= 0; i-- {
		a.Key = h.groups[i] + "." + a.Key
	}

	return a
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, a slog.Attr, n int) {
	switch {
	case h.multiline && n == 0:
		buf.WriteString("{\n  ")
	case h.multiline:
		buf.WriteString(",\n  ")
	case n > 0:
		buf.WriteByte(' ')
	}

	buf.WriteString(h.colors.key.Render(a.Key))

	if h.multiline {
		buf.WriteString(": ")
	} else {
		buf.WriteByte('=')
	}

	h.writeValue(buf, a.Key, a.Value.Resolve())
}

func (h *prettyHandler) writeValue(buf *bytes.Buffer, key string, v slog.Value) {
	c := h.colors

	switch v.Kind() {
	case slog.KindInt64:
		buf.WriteString(c.num.Render(strconv.FormatInt(v.Int64(), 10)))
	case slog.KindUint64:
		buf.WriteString(c.num.Render(strconv.FormatUint(v.Uint64(), 10)))
	case slog.KindFloat64:
		buf.WriteString(c.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64)))
	case slog.KindBool:
		buf.WriteString(c.num.Render(strconv.FormatBool(v.Bool())))
	case slog.KindDuration:
		buf.WriteString(c.num.Render(v.Duration().String()))
	case slog.KindTime:
		buf.WriteString(c.time.Render(v.Time().Format(time.RFC3339)))
	case slog.KindGroup:
		buf.WriteByte('{')

		for i, a := range v.Group() {
			if i > 0 {
				buf.WriteByte(' ')
			}

			buf.WriteString(c.key.Render(a.Key))
			buf.WriteByte('=')
			h.writeValue(buf, a.Key, a.Value.Resolve())
		}

		buf.WriteByte('}')
	default:
		if l, ok := v.Any().(slog.Level); ok {
			buf.WriteString(c.level(l).Render(Level(l).String()))

			return
		}

		switch key {
		case slog.TimeKey:
			buf.WriteString(c.time.Render(v.String()))
		case slog.SourceKey:
			buf.WriteString(c.src.Render(v.String()))
		case slog.LevelKey:
			buf.WriteString(c.level(levelOf(v.String())).Render(v.String()))
		default:
			buf.WriteString(c.str.Render(v.String()))
		}
	}
}

func levelOf(name string) slog.Level {
	return slog.Level(ParseLevel(name))
}

func runtimeFrame(pc uintptr) string {
	if pc == 0 {
		return ""
	}

	f, _ := runtime.CallersFrames([]uintptr{pc}).Next()

	return fmt.Sprintf("%s:%d", f.File, f.Line)
}
