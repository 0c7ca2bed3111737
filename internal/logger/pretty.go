package logger

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// PrettyHandler formats records as a single coloured line:
//
//	15:04:05 INF message key=value group.key=value
type PrettyHandler struct {
	opts   *slog.HandlerOptions
	writer io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string

	dim, bold, attr *color.Color
	levels          map[slog.Level]*color.Color
}

// NewPrettyHandler creates a new pretty handler.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	h := &PrettyHandler{
		opts:   opts,
		writer: w,
		mu:     &sync.Mutex{},
		dim:    color.New(color.Faint),
		bold:   color.New(color.Bold),
		attr:   color.New(color.FgCyan),
		levels: map[slog.Level]*color.Color{
			slog.LevelDebug: color.New(color.FgMagenta),
			slog.LevelInfo:  color.New(color.FgGreen),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelError: color.New(color.FgRed),
		},
	}
	return h
}

// SetColor forces colouring on or off, regardless of whether the writer is a terminal.
func (h *PrettyHandler) SetColor(enabled bool) {
	for _, c := range h.all() {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

func (h *PrettyHandler) all() []*color.Color {
	out := []*color.Color{h.dim, h.bold, h.attr}
	for _, c := range h.levels {
		out = append(out, c)
	}
	return out
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle formats and writes the log record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(h.dim.Sprint(r.Time.Format("15:04:05")))
	sb.WriteByte(' ')

	name, c := h.level(r.Level)
	sb.WriteString(c.Sprint(name))
	sb.WriteByte(' ')

	if h.opts.AddSource && r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		sb.WriteString(h.dim.Sprint(filepath.Base(f.File) + ":" + strconv.Itoa(f.Line)))
		sb.WriteByte(' ')
	}

	sb.WriteString(h.bold.Sprint(r.Message))

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		attrs = append(attrs, a)
		return true
	})

	if len(attrs) > 0 {
		pairs := make([]string, 0, len(attrs))
		for _, a := range attrs {
			pairs = appendAttr(pairs, "", a)
		}
		sb.WriteByte(' ')
		sb.WriteString(h.attr.Sprint(strings.Join(pairs, " ")))
	}
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

// appendAttr flattens group attributes into dotted keys.
func appendAttr(pairs []string, prefix string, a slog.Attr) []string {
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			pairs = appendAttr(pairs, key, ga)
		}
		return pairs
	}
	return append(pairs, key+"="+formatValue(a.Value))
}

// WithAttrs returns a new handler with additional attributes.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	prefix := strings.Join(h.groups, ".")
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

// WithGroup returns a new handler whose subsequent attributes are prefixed with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *PrettyHandler) level(level slog.Level) (string, *color.Color) {
	switch level {
	case slog.LevelDebug:
		return "DBG", h.levels[slog.LevelDebug]
	case slog.LevelInfo:
		return "INF", h.levels[slog.LevelInfo]
	case slog.LevelWarn:
		return "WRN", h.levels[slog.LevelWarn]
	case slog.LevelError:
		return "ERR", h.levels[slog.LevelError]
	default:
		return level.String(), h.dim
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t\"") {
			return strconv.Quote(s)
		}
		return s
	default:
		return v.Resolve().String()
	}
}
