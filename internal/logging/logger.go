package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/USSTM/doc-gateway/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "doc-gateway"

var (
	logger *slog.Logger
	level  = new(slog.LevelVar)
)

// Init installs the process logger. Records go to a lumberjack-rotated
// file; text output is mirrored to stdout. An empty Filename logs to
// stdout only.
func Init(cfg *config.LoggingConfig) error {
	out, err := openOutput(cfg)
	if err != nil {
		return err
	}

	level.Set(parseLevel(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(out, opts)
	default:
		h = slog.NewTextHandler(out, opts)
	}

	logger = slog.New(h).With("service", serviceName)
	slog.SetDefault(logger)
	return nil
}

func openOutput(cfg *config.LoggingConfig) (io.Writer, error) {
	if cfg.Filename == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0o755); err != nil {
		return nil, err
	}
	roller := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	if strings.EqualFold(cfg.Format, "json") {
		return roller, nil
	}
	return io.MultiWriter(os.Stdout, roller), nil
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func current() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func Debug(msg string, args ...any) { current().Debug(msg, args...) }
func Info(msg string, args ...any)  { current().Info(msg, args...) }
func Warn(msg string, args ...any)  { current().Warn(msg, args...) }
func Error(msg string, args ...any) { current().Error(msg, args...) }

func With(args ...any) *slog.Logger {
	return current().With(args...)
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request-scoped logger, or the default logger
// when none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
