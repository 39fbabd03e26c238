package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// callFields are the attributes a remote call carries. The console handler
// lifts them out of the key=value tail into fixed positions:
//
//	15:04:05.000 DEBUG teamdesk: [Query Website] remote call finished (ok, 1.5s) req=<id>
type callFields struct {
	component string
	operation string
	table     string
	outcome   string
	requestID string
	latency   time.Duration
	timed     bool
}

func (f *callFields) lift(attr slog.Attr) bool {
	value := attr.Value.Resolve()
	switch attr.Key {
	case FieldComponent:
		f.component = value.String()
	case FieldOperation:
		f.operation = value.String()
	case FieldTable:
		f.table = value.String()
	case FieldOutcome:
		f.outcome = value.String()
	case FieldCorrelationID:
		f.requestID = value.String()
	case FieldLatency:
		if value.Kind() != slog.KindDuration {
			return false
		}
		f.latency, f.timed = value.Duration(), true
	default:
		return false
	}
	return true
}

type consoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     slog.Leveler
	addSource bool

	fields callFields
	attrs  []slog.Attr
	prefix string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, writer: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := h.fields
	extra := append([]slog.Attr(nil), h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		if h.prefix != "" || !fields.lift(attr) {
			extra = append(extra, h.scoped(attr))
		}
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(ts.Format("15:04:05.000"))
	fmt.Fprintf(&buf, " %-5s ", record.Level.String())
	if fields.component != "" {
		buf.WriteString(fields.component)
		buf.WriteString(": ")
	}
	if fields.operation != "" {
		buf.WriteByte('[')
		buf.WriteString(fields.operation)
		if fields.table != "" {
			buf.WriteByte(' ')
			buf.WriteString(fields.table)
		}
		buf.WriteString("] ")
	}
	buf.WriteString(record.Message)

	switch {
	case fields.outcome != "" && fields.timed:
		fmt.Fprintf(&buf, " (%s, %s)", fields.outcome, roundLatency(fields.latency))
	case fields.outcome != "":
		fmt.Fprintf(&buf, " (%s)", fields.outcome)
	case fields.timed:
		fmt.Fprintf(&buf, " (%s)", roundLatency(fields.latency))
	}

	for _, attr := range extra {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(attr.Key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(attr.Value))
	}
	if fields.requestID != "" {
		buf.WriteString(" req=")
		buf.WriteString(fields.requestID)
	}
	if h.addSource && record.PC != 0 {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " @%s:%d", filepath.Base(src.File), src.Line)
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, attr := range attrs {
		if h.prefix != "" || !clone.fields.lift(attr) {
			clone.attrs = append(clone.attrs, h.scoped(attr))
		}
	}
	return &clone
}

// WithGroup qualifies later keys as group.key; grouped keys are never lifted.
func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *consoleHandler) scoped(attr slog.Attr) slog.Attr {
	if h.prefix == "" {
		return attr
	}
	return slog.Attr{Key: h.prefix + attr.Key, Value: attr.Value}
}

func roundLatency(d time.Duration) time.Duration {
	if d >= time.Millisecond {
		return d.Round(time.Millisecond)
	}
	return d
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	var s string
	switch v.Kind() {
	case slog.KindDuration:
		s = roundLatency(v.Duration()).String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " =\"\t\n") {
		return strconv.Quote(s)
	}
	return s
}
