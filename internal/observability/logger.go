// File: internal/observability/logger.go
package observability

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xkilldash9x/autosign/internal/config"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

const (
	colorReset = "\x1b[0m"
	colorGreen = "\x1b[32m"

	// timeLayout keeps millisecond stamps so poll rounds can be lined up
	// against screenshot names.
	timeLayout = "2006-01-02T15:04:05.000Z07:00"
)

var palette = map[string]string{
	"red":     "\x1b[31m",
	"green":   colorGreen,
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
	"white":   "\x1b[37m",
}

// Initialize sets up the global logger. The console core writes to console;
// when cfg.LogFile is set a JSON copy stamped with the service name goes to a
// rotating file. Only the first call has any effect until ResetForTest.
func Initialize(cfg config.LoggerConfig, console zapcore.WriteSyncer) {
	once.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}

		cores := []zapcore.Core{consoleCore(cfg, console, level)}
		if cfg.LogFile != "" {
			cores = append(cores, fileCore(cfg, level))
		}

		opts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			opts = append(opts, zap.AddCaller())
		}

		logger := zap.New(zapcore.NewTee(cores...), opts...).Named(cfg.ServiceName)
		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

// InitializeLogger logs to Stderr so operator prompts on Stdout stay readable.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stderr))
}

// ResetForTest clears the global logger. Tests only.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

// ForRun returns logger tagged with a fresh run_id, and the id itself, so
// every line of one sign-up attempt can be pulled out of the log file.
func ForRun(logger *zap.Logger) (*zap.Logger, string) {
	id := uuid.New().String()
	return logger.With(zap.String("run_id", id)), id
}

func consoleCore(cfg config.LoggerConfig, ws zapcore.WriteSyncer, level zap.AtomicLevel) zapcore.Core {
	enc := encoderConfig()
	if cfg.Format != "console" {
		enc.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewCore(zapcore.NewJSONEncoder(enc), ws, level)
	}
	enc.EncodeLevel = levelColors(cfg.Colors).encode
	enc.EncodeName = func(name string, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(name + ".")
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(enc), ws, level)
}

func fileCore(cfg config.LoggerConfig, level zap.AtomicLevel) zapcore.Core {
	ws := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
	enc := encoderConfig()
	enc.EncodeLevel = zapcore.LowercaseLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), ws, level)
	if cfg.ServiceName == "" {
		return core
	}
	return core.With([]zapcore.Field{zap.String("service", cfg.ServiceName)})
}

func encoderConfig() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	return enc
}

// levelColors maps each level to the ANSI prefix configured for it.
type levelColors config.ColorConfig

func (c levelColors) prefix(l zapcore.Level) string {
	var name string
	switch l {
	case zapcore.DebugLevel:
		name = c.Debug
	case zapcore.InfoLevel:
		name = c.Info
	case zapcore.WarnLevel:
		name = c.Warn
	case zapcore.ErrorLevel:
		name = c.Error
	case zapcore.DPanicLevel:
		name = c.DPanic
	case zapcore.PanicLevel:
		name = c.Panic
	case zapcore.FatalLevel:
		name = c.Fatal
	}
	return palette[name]
}

func (c levelColors) encode(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
	text := l.CapitalString()
	if p := c.prefix(l); p != "" {
		text = p + text + colorReset
	}
	pae.AppendString(text)
}

// GetLogger returns the global logger, or a development logger named
// "fallback" when Initialize has not run yet.
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	l.Warn("Global logger requested before initialization; using fallback.")
	return l.Named("fallback")
}

// Sync flushes buffered entries. Errors from syncing a terminal or pipe are
// expected and dropped.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	if err := logger.Sync(); err != nil && !unsyncable(err) {
		fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
	}
}

func unsyncable(err error) bool {
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.ENOTSUP) {
		return true
	}
	return strings.Contains(err.Error(), "/dev/std")
}
