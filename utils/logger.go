package utils

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/qalamhq/qalam/config"
)

var (
	// Logger is the global structured logger
	Logger *zap.Logger
	// Sugar is a sugared logger for convenience
	Sugar *zap.SugaredLogger
)

// InitLogger initializes a zap logger with console plus optional rolling
// file output based on configuration.
func InitLogger(cfg config.AppConfig) error {
	if cfg.LogPath != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755)
	}

	level := parseLevel(cfg.LogLevel)

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	enabler := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= level })

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(os.Stdout), enabler),
	}

	if cfg.LogPath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    nz(cfg.LogMaxSizeMB, 100), // megabytes
			MaxBackups: nz(cfg.LogMaxBackups, 3),
			MaxAge:     nz(cfg.LogMaxAgeDays, 7), // days
			Compress:   cfg.LogCompress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(lj), enabler))
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.LogLevel == "debug" {
		opts = append(opts, zap.Development())
	}
	Logger = zap.New(zapcore.NewTee(cores...), opts...)
	Sugar = Logger.Sugar()
	return nil
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func nz(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
