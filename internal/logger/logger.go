package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultLogger *zap.SugaredLogger
)

// Init initializes the global logger
func Init(level string, json bool) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if json {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.ConsoleSeparator = " | "
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), parseLevel(level))
	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	defaultLogger = l.Sugar()
}

// SetNop silences the global logger (tests)
func SetNop() {
	defaultLogger = zap.NewNop().Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Get returns the default logger
func Get() *zap.SugaredLogger {
	if defaultLogger == nil {
		Init("info", false)
	}
	return defaultLogger
}

// WithContext returns a logger carrying the request id, if any
func WithContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
			return Get().With("request_id", id)
		}
	}
	return Get()
}

type requestIDKey struct{}

// ContextWithRequestID stores a request id for WithContext
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Info logs at info level
func Info(msg string, args ...any) {
	Get().Infow(msg, args...)
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Get().Debugw(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Get().Warnw(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Get().Errorw(msg, args...)
}

// Fatal logs at error level and exits
func Fatal(msg string, args ...any) {
	Get().Errorw(msg, args...)
	_ = Get().Sync()
	os.Exit(1)
}

// With returns a logger with the given attributes
func With(args ...any) *zap.SugaredLogger {
	return Get().With(args...)
}

// Sync flushes buffered entries
func Sync() {
	if defaultLogger != nil {
		_ = defaultLogger.Sync()
	}
}
