package pebble

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// SlogLogger routes pebble's internal logging onto a structured logger.
// Fatalf logs at error level and exits, as pebble expects.
type SlogLogger struct {
	Logger *slog.Logger
}

func (l *SlogLogger) Infof(format string, args ...any) {
	l.Logger.Debug(fmt.Sprintf(format, args...), "component", "pebble")
}

func (l *SlogLogger) Errorf(format string, args ...any) {
	l.Logger.Error(fmt.Sprintf(format, args...), "component", "pebble")
}

func (l *SlogLogger) Fatalf(format string, args ...any) {
	l.Logger.Error(fmt.Sprintf(format, args...), "component", "pebble")
	os.Exit(1)
}

func (l *SlogLogger) Eventf(ctx context.Context, format string, args ...any) {}

func (l *SlogLogger) IsTracingEnabled(ctx context.Context) bool {
	return false
}
