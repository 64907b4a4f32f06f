// Package obslog wires the service's structured logger. Every long-running
// component receives a *zap.Logger already bound with whatever fields
// identify it, rather than reaching for a global.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process-wide root logger. In production it writes JSON to
// stderr at info level; tests and local runs can lower the level via env.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	return cfg.Build()
}

// ForFeed returns a child logger with the feed id and ingest type bound as
// fields, matching the teacher's child-logger convention of binding
// identifying context once instead of repeating it at every call site.
func ForFeed(base *zap.Logger, feedID, ingestType string) *zap.Logger {
	return base.With(zap.String("feed_id", feedID), zap.String("ingest_type", ingestType))
}
