// Package logger provides the process-wide structured logger.
package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type ctxKey struct{}

var (
	log         = zap.NewNop()
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init builds the global logger. Output always goes to stdout; when opts.File is
// set it is also written to a size-rotated file.
func Init(opts Options) error {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.MessageKey = "msg"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	atomicLevel = zap.NewAtomicLevelAt(parseLevel(opts.Level))
	enc := zapcore.NewJSONEncoder(encoderConfig)
	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), atomicLevel),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return err
		}
		lw := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(lw), atomicLevel))
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel changes the level at runtime; unknown values fall back to info.
func SetLevel(level string) { atomicLevel.SetLevel(parseLevel(level)) }

// L returns the underlying zap logger
func L() *zap.Logger { return log }

func Info(msg string, fields ...zap.Field)  { log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { log.Error(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { log.Debug(msg, fields...) }
func Sync()                                 { _ = log.Sync() }

// WithRequestID stores a request id for later log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromContext returns the global logger annotated with the request id in ctx.
func FromContext(ctx context.Context) *zap.Logger {
	l := log.WithOptions(zap.AddCallerSkip(-1))
	if id := RequestID(ctx); id != "" {
		return l.With(zap.String("requestId", id))
	}
	return l
}
