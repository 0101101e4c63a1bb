package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// New builds the pegd JSON logger over the given writer. Field names follow
// the daemon's log schema (ts, level, msg) and every line carries the service
// name plus the deployment environment when one is set. The minimum level is
// read from PEGD_LOG_LEVEL (debug, info, warn, error); unknown or empty
// values mean info.
func New(w io.Writer, service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: levelFromEnv(),
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
			case slog.LevelKey:
				attr.Key = "level"
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "msg"
			}
			return attr
		},
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	return slog.New(handler.WithAttrs(attrs))
}

// Setup wires the process-wide loggers for the daemon: slog emits to stdout
// and the standard library logger is bridged through the same handler, so
// log.Fatalf output carries the service fields too.
func Setup(service, env string) *slog.Logger {
	logger := New(os.Stdout, service, env)
	slog.SetDefault(logger)

	bridge := slog.NewLogLogger(logger.Handler(), slog.LevelInfo)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return logger
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("PEGD_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
