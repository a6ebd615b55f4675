package logger

import (
	"log/slog"
	"os"
)

// New builds the process-wide JSON logger. Local and dev environments log
// at debug, everything else at info. Callers install it as the slog default
// so library code logging through slog.Default() ends up in the same stream.
func New(appEnv string) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFor(appEnv),
	})
	return slog.New(h)
}

func levelFor(appEnv string) slog.Level {
	switch appEnv {
	case "local", "dev":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
