// Package logger builds the process-wide *slog.Logger, backed by zap.
package logger

import (
	"fmt"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New returns a slog logger writing JSON through zap in production and
// console output otherwise. The returned sync func flushes buffered entries.
func New(environment, level string) (*slog.Logger, func() error, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build zap logger: %w", err)
	}

	handler := zapslog.NewHandler(z.Core(), zapslog.WithCaller(true))
	return slog.New(handler).With("service", "jesa"), z.Sync, nil
}
