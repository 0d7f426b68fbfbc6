package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogLevel определяет уровень логирования из переменной окружения.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: INFO
func LogLevel() slog.Level {
	return parseLevel(os.Getenv("LOG_LEVEL"), slog.LevelInfo)
}

func parseLevel(level string, fallback slog.Level) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return fallback
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// Формат вывода определяется переменной LOG_FORMAT:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
func SetupLogger() *slog.Logger {
	return SetupLoggerTo(os.Stdout)
}

// SetupLoggerTo — как SetupLogger, но пишет в w.
func SetupLoggerTo(w io.Writer) *slog.Logger {
	return setup(w, LogLevel(), os.Getenv("LOG_FORMAT"))
}

// SetupCLILogger — логгер CLI: stderr, text, по умолчанию WARN,
// чтобы stdout оставался чистым для таблиц и JSON.
func SetupCLILogger(w io.Writer, verbose bool) *slog.Logger {
	fallback := slog.LevelWarn
	if verbose {
		fallback = slog.LevelDebug
	}

	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "text"
	}
	return setup(w, parseLevel(os.Getenv("LOG_LEVEL"), fallback), format)
}

func setup(w io.Writer, level slog.Level, format string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithRunID возвращает логгер с добавленным run_id.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}

// WithChain возвращает логгер с добавленным именем chain.
func WithChain(logger *slog.Logger, chain string) *slog.Logger {
	return logger.With("chain", chain)
}

// WithStep возвращает логгер с добавленным step_id.
func WithStep(logger *slog.Logger, stepID string) *slog.Logger {
	return logger.With("step_id", stepID)
}
