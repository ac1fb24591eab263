// Package logger builds the process-wide structured logger. It is
// constructed once in main and injected into every component that needs
// it, rather than referenced as a package-level global.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger. dev selects a human-readable console encoder;
// production builds use JSON so log aggregation can index fields.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Tagged returns a child logger scoped to one component, e.g. "crawl" or
// "push", via a structured "component" field.
func Tagged(base *zap.Logger, component string) *zap.Logger {
	return base.With(zap.String("component", component))
}
