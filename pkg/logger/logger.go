// Package logger constructs the process-wide slog loggers shared by the
// api, migrate, and import binaries.
package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog.Logger tagged with the emitting service name.
// Every binary writes to stdout; the container runtime owns collection.
func New(service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}
