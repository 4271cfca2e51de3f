// Package log provides structured logging with per-invocation run context.
//
// Loggers are constructed per run and injected into the components that need
// them; there is no process-wide logger. Two variants are available:
//   - Logger: non-sugared zap.Logger for pipeline internals
//   - SugaredLogger: printf-style logging for CLI surfaces
//
// Use Logger.Sugar() to obtain a SugaredLogger.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunMeta identifies a single shipbridge invocation. Every log entry carries
// these fields so partial-batch failures can be attributed to a specific run.
type RunMeta struct {
	// RunID uniquely identifies this invocation.
	RunID string
	// Flow names the command being run (outbound, inbound, cleanup, stores).
	Flow string
	// DryRun marks evaluation-only runs.
	DryRun bool
}

// Logger provides structured logging with run context.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging with run context.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger carrying the run context fields.
// Output defaults to os.Stderr.
func NewLogger(meta RunMeta) *Logger {
	return newLoggerWithWriter(meta, os.Stderr)
}

// WithOutput returns a new logger writing to w instead of os.Stderr.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

func newLoggerWithWriter(meta RunMeta, w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)

	contextFields := []zap.Field{
		zap.String("run_id", meta.RunID),
		zap.String("flow", meta.Flow),
	}
	if meta.DryRun {
		contextFields = append(contextFields, zap.Bool("dry_run", true))
	}

	return &Logger{zap: zap.New(core).With(contextFields...)}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields ...zap.Field) { l.zap.Debug(message, fields...) }

// Info logs an info message.
func (l *Logger) Info(message string, fields ...zap.Field) { l.zap.Info(message, fields...) }

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields ...zap.Field) { l.zap.Warn(message, fields...) }

// Error logs an error message.
func (l *Logger) Error(message string, fields ...zap.Field) { l.zap.Error(message, fields...) }

// Sugar returns a SugaredLogger sharing this logger's core and context.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) { s.sugar.Debugf(template, args...) }

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) { s.sugar.Infof(template, args...) }

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) { s.sugar.Warnf(template, args...) }

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) { s.sugar.Errorf(template, args...) }

// With returns a SugaredLogger with additional context fields.
// Pipelines use this to pin the shipment identifier on every entry.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}

// Nop returns a logger that discards everything. For tests.
func Nop() *Logger { return &Logger{zap: zap.NewNop()} }
