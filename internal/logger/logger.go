// Package logger builds the process logger: a zap core exposed through
// log/slog so call sites stay on the standard slog API.
package logger

import (
	"fmt"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New returns a slog logger backed by zap. Production uses the JSON encoder;
// other environments use the development console encoder. The returned sync
// function flushes buffered entries.
func New(environment, level string) (*slog.Logger, func() error, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zcfg zap.Config
	if environment == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := zcfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build zap logger: %w", err)
	}

	handler := zapslog.NewHandler(z.Core(), zapslog.WithCaller(true))
	return slog.New(handler), z.Sync, nil
}

// Setup builds the logger and installs it as the slog default.
func Setup(environment, level string) (func() error, error) {
	l, sync, err := New(environment, level)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return sync, nil
}
