// Package logger provides event-style structured logging for the service.
// Events are short snake_case names with a flat field map, written through
// log/slog with a tint handler.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Init installs the default handler. Level comes from LOG_LEVEL
// (debug, info, warn, error; default info).
func Init() {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      levelFromEnv(),
			TimeFormat: time.RFC3339,
		}),
	))
}

func Info(event string, fields map[string]interface{}) {
	slog.Info(event, attrs(fields)...)
}

func Warn(event string, fields map[string]interface{}) {
	slog.Warn(event, attrs(fields)...)
}

func Error(event string, err error, fields map[string]interface{}) {
	args := attrs(fields)
	if err != nil {
		args = append(args, "error", err.Error())
	}
	slog.Error(event, args...)
}

func InfoWithUser(userID, event string, fields map[string]interface{}) {
	slog.Info(event, append(attrs(fields), "user_id", userID)...)
}

func attrs(fields map[string]interface{}) []any {
	args := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}
	return args
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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
