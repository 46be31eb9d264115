// Package richlog holds the process-wide zap logger used by the document core.
package richlog

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
)

func init() {
	SetLogger(false, "info")
}

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(logLevel string) zapcore.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the process logger with a JSON logger writing to stdout.
// showCallerInfo: include caller and function name
// logLevel: debug, info, warn, error, dpanic, panic, fatal
func SetLogger(showCallerInfo bool, logLevel string) {
	SetOutput(os.Stdout, showCallerInfo, logLevel)
}

// SetOutput is SetLogger with an explicit destination.
func SetOutput(w io.Writer, showCallerInfo bool, logLevel string) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if showCallerInfo {
		encoderConfig.FunctionKey = "func"
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		ParseLevel(logLevel),
	)

	l := zap.New(core)
	if showCallerInfo {
		l = l.WithOptions(zap.AddCaller())
	}
	Replace(l)
}

// Replace installs l as the process logger. A nil logger installs zap.NewNop.
func Replace(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// GetLogger returns the current process logger.
func GetLogger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Named returns a child of the process logger for a component.
func Named(name string) *zap.Logger {
	return GetLogger().Named(name)
}

// OrDefault returns l, or the named process logger when l is nil.
func OrDefault(l *zap.Logger, name string) *zap.Logger {
	if l != nil {
		return l
	}
	return Named(name)
}

func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Sync flushes the process logger.
func Sync() error {
	return GetLogger().Sync()
}
