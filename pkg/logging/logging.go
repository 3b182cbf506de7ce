package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with context support
type Logger struct {
	logger *zap.Logger
}

// LogLevel defines the logging level
type LogLevel zapcore.Level

const (
	DEBUG LogLevel = LogLevel(zapcore.DebugLevel)
	INFO  LogLevel = LogLevel(zapcore.InfoLevel)
	WARN  LogLevel = LogLevel(zapcore.WarnLevel)
	ERROR LogLevel = LogLevel(zapcore.ErrorLevel)
	FATAL LogLevel = LogLevel(zapcore.FatalLevel)
)

// contextKey defines a type for context keys
type contextKey string

const requestIDKey contextKey = "request_id"

// NewLogger creates a new Logger instance
func NewLogger(level LogLevel) *Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.Level(level))
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return &Logger{logger: logger}
}

// NewNop returns a logger that discards everything; used in tests.
func NewNop() *Logger {
	return &Logger{logger: zap.NewNop()}
}

// WithRequestID adds request_id to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDField(ctx context.Context) zap.Field {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return zap.String("request_id", reqID)
	}
	return zap.Skip()
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Debug(msg, append(fields, requestIDField(ctx))...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Info(msg, append(fields, requestIDField(ctx))...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Warn(msg, append(fields, requestIDField(ctx))...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Error(msg, append(fields, requestIDField(ctx))...)
}

func (l *Logger) Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	l.logger.Fatal(msg, append(fields, requestIDField(ctx))...)
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.logger.Sync()
}
