package logging

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
	ansiBold   = "\033[1m"
)

//nolint:gochecknoglobals
var levelColors = map[slog.Level]string{
	slog.LevelDebug: ansiCyan,
	slog.LevelInfo:  ansiGreen,
	slog.LevelWarn:  ansiYellow,
	slog.LevelError: ansiRed,
}

// ConsoleHandler writes one colored line per record, meant for a terminal
// during development:
//
//	12:04:05.123 INFO  [svc.blogsvc] post created | post.id=4 trace.id=...
type ConsoleHandler struct {
	out    io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	source bool

	logger string
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

func NewConsoleHandler(out io.Writer, level slog.Leveler, source bool) *ConsoleHandler {
	return &ConsoleHandler{
		out:    out,
		mu:     new(sync.Mutex),
		level:  level,
		source: source,
	}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	buf.WriteString(ansiGray + r.Time.Format("15:04:05.000") + ansiReset + " ")
	buf.WriteString(levelColors[r.Level] + padRight(r.Level.String(), 5) + ansiReset + " ")

	if h.logger != "" {
		buf.WriteString(ansiBold + "[" + h.logger + "]" + ansiReset + " ")
	}

	buf.WriteString(r.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	if len(attrs) > 0 {
		buf.WriteString(" " + ansiGray + "|" + ansiReset)
		writeAttrs(&buf, prefix, attrs)
	}

	if h.source && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		buf.WriteString(" " + ansiGray + frame.File + ":" + strconv.Itoa(frame.Line) + ansiReset)
	}

	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.out, buf.String())

	//nolint:wrapcheck
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	clone := *h
	clone.attrs = append([]slog.Attr{}, h.attrs...)

	for _, attr := range attrs {
		// The logger name is rendered as a bracketed tag instead of an attribute.
		if attr.Key == "logger" && len(h.groups) == 0 {
			clone.logger = attr.Value.String()

			continue
		}

		if attr.Key == "app" && len(h.groups) == 0 {
			continue
		}

		clone.attrs = append(clone.attrs, attr)
	}

	return &clone
}

func (h *ConsoleHandler) WithGroup(name string) Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)

	return &clone
}

func writeAttrs(buf *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			writeAttrs(buf, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		buf.WriteString(" " + prefix + attr.Key + "=" + ansiGray + attr.Value.String() + ansiReset)
	}
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}

	return s + strings.Repeat(" ", n-len(s))
}
