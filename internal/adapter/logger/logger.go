package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Warn(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type slogLogger struct {
	l *slog.Logger
}

// New writes one JSON object per line to stdout.
func New(service, level string) Logger {
	return NewWithWriter(os.Stdout, service, level)
}

func NewWithWriter(w io.Writer, service, level string) Logger {
	hostname, _ := os.Hostname()

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
				a.Value = slog.StringValue(a.Value.Time().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"))
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})

	return &slogLogger{
		l: slog.New(handler).With(
			slog.String("service", service),
			slog.String("hostname", hostname),
		),
	}
}

// Discard drops everything. Used by tests and one-shot commands.
func Discard() Logger {
	return NewWithWriter(io.Discard, "discard", "error")
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *slogLogger) Info(action, message, requestID string, details map[string]interface{}) {
	s.log(slog.LevelInfo, action, message, requestID, details, nil)
}

func (s *slogLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	s.log(slog.LevelDebug, action, message, requestID, details, nil)
}

func (s *slogLogger) Warn(action, message, requestID string, details map[string]interface{}) {
	s.log(slog.LevelWarn, action, message, requestID, details, nil)
}

func (s *slogLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	s.log(slog.LevelError, action, message, requestID, details, err)
}

func (s *slogLogger) log(level slog.Level, action, message, requestID string, details map[string]interface{}, err error) {
	attrs := []slog.Attr{
		slog.String("request_id", requestID),
		slog.String("action", action),
	}
	if len(details) > 0 {
		attrs = append(attrs, slog.Any("details", details))
	}
	if err != nil {
		attrs = append(attrs, slog.Group("error", slog.String("msg", err.Error())))
	}
	s.l.LogAttrs(context.Background(), level, message, attrs...)
}
