// Package logger builds the zap loggers used by the navigation engine.
package logger

import (
	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the rotating log file sink.
type Config struct {
	Filename   string // log file path; empty means stderr only
	MaxSize    int    // megabytes before rotation
	MaxBackups int    // rotated files to retain
	MaxAge     int    // days to retain rotated files
	Level      zapcore.Level
}

func DefaultConfig() Config {
	return Config{
		Filename:   "tilednav.log",
		MaxSize:    64,
		MaxBackups: 3,
		MaxAge:     7,
		Level:      zapcore.InfoLevel,
	}
}

// New constructs a production logger writing JSON to a lumberjack rotating
// file sink.
func New(cfg Config) *zap.Logger {
	ws := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	})
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		ws,
		cfg.Level,
	)
	return zap.New(core)
}

// Nop returns a logger that discards everything. It is the default for
// navigation meshes so queries stay allocation free on the hot path.
func Nop() *zap.Logger { return zap.NewNop() }
