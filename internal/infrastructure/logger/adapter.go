package logger

import (
	"errors"
	"os"
	"strings"
	"syscall"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type Config struct {
	Level string
	// File enables an additional JSON log with rotation. Empty disables it.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Console    zapcore.WriteSyncer
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 14,
	}
}

type LoggerAdapter struct {
	zl *zap.Logger
}

// NewLoggerAdapter builds a console logger on stderr, teed into a rotating
// JSON file when cfg.File is set. Stdout is left untouched for protocol traffic.
func NewLoggerAdapter(cfg Config) (*LoggerAdapter, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	console := cfg.Console
	if console == nil {
		console = zapcore.Lock(os.Stderr)
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), console, level),
	}

	if cfg.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), fileWriter, level))
	}

	zl := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel)).Named("mcp-browser-use")
	return &LoggerAdapter{zl: zl}, nil
}

func NewNop() *LoggerAdapter {
	return &LoggerAdapter{zl: zap.NewNop()}
}

// FromZap wraps an existing zap logger, mainly for tests using zaptest/observer.
func FromZap(zl *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{zl: zl}
}

func (l *LoggerAdapter) Zap() *zap.Logger {
	return l.zl
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.zl.Debug(msg, toFields(args)...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.zl.Info(msg, toFields(args)...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.zl.Warn(msg, toFields(args)...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.zl.Error(msg, toFields(args)...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{zl: l.zl.With(zap.Any(key, value))}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return &LoggerAdapter{zl: l.zl.With(zf...)}
}

func (l *LoggerAdapter) Close() error {
	err := l.zl.Sync()
	// Sync on a terminal or pipe returns EINVAL/ENOTTY; nothing was lost.
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

func toFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		if err, isErr := args[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}
