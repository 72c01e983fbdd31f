package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger writes one JSON object per line: timestamp, level, service, action,
// hostname and request_id plus the caller's fields.
type Logger struct {
	service   string
	requestID string
	h         *slog.Logger
}

var hostname = func() string { h, _ := os.Hostname(); return h }()

func New(service string) *Logger { return NewWithWriter(service, os.Stdout, slog.LevelDebug) }

func NewWithWriter(service string, w io.Writer, level slog.Level) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
				a.Value = slog.StringValue(a.Value.Time().UTC().Format("2006-01-02T15:04:05.999999999Z07:00"))
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})
	return &Logger{service: service, h: slog.New(h)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger { return NewWithWriter("discard", io.Discard, slog.LevelError+1) }

// Named returns a copy of l for another service name sharing the same sink.
func (l *Logger) Named(service string) *Logger {
	c := *l
	c.service = service
	return &c
}

// WithRequestID returns a copy of l stamping every line with id.
func (l *Logger) WithRequestID(id string) *Logger {
	c := *l
	c.requestID = id
	return &c
}

func (l *Logger) log(level slog.Level, action string, fields map[string]any, err error) {
	if l == nil {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields)+5)
	attrs = append(attrs,
		slog.String("service", l.service),
		slog.String("action", action),
		slog.String("hostname", hostname),
		slog.String("request_id", l.requestID),
	)
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	if err != nil {
		attrs = append(attrs, slog.Group("error",
			slog.String("msg", err.Error()),
			slog.String("stack", fmt.Sprintf("%T", err)),
		))
	}
	l.h.LogAttrs(context.Background(), level, action, attrs...)
}

func (l *Logger) Info(action string, fields map[string]any)  { l.log(slog.LevelInfo, action, fields, nil) }
func (l *Logger) Debug(action string, fields map[string]any) { l.log(slog.LevelDebug, action, fields, nil) }
func (l *Logger) Warn(action string, err error, fields map[string]any) {
	l.log(slog.LevelWarn, action, fields, err)
}
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(slog.LevelError, action, fields, err)
}
