package config

import (
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: JSON production output, or the
// human readable development encoder when APP_ENV is "dev".  An unknown
// LOG_LEVEL falls back to info.
func NewLogger(cfg Config) (*zap.Logger, error) {
    zc := zap.NewProductionConfig()
    if cfg.Env == "dev" {
        zc = zap.NewDevelopmentConfig()
    }
    lvl, err := zapcore.ParseLevel(cfg.LogLevel)
    if err != nil {
        lvl = zapcore.InfoLevel
    }
    zc.Level = zap.NewAtomicLevelAt(lvl)
    zc.EncoderConfig.TimeKey = "ts"
    zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    return zc.Build(zap.Fields(zap.String("env", cfg.Env)))
}
