// Package log holds the process-wide structured logger. Commands print
// user-facing output themselves; this logger carries diagnostics, which
// stay on stderr so they never mix with query results on stdout.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global instance. Initialize replaces it.
	Logger *zap.SugaredLogger
	// JSONOutput tracks whether Initialize selected machine-readable output.
	JSONOutput bool
)

func init() {
	// Safe no-op logger at package load time so library code can log
	// before Initialize runs (or when it never runs, as in tests).
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger. Verbose lowers the threshold to
// Debug; jsonOutput switches to production JSON encoding.
func Initialize(verbose, jsonOutput bool) error {
	JSONOutput = jsonOutput

	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	var zapLogger *zap.Logger
	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
		built, err := config.Build()
		if err != nil {
			return err
		}
		zapLogger = built
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		zapLogger = zap.New(
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(encoderCfg),
				zapcore.AddSync(os.Stderr),
				level,
			),
		)
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Cleanup flushes any buffered log entries.
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func Debug(args ...interface{}) { Logger.Debug(args...) }

func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }

func Debugw(msg string, keysAndValues ...interface{}) { Logger.Debugw(msg, keysAndValues...) }

func Info(args ...interface{}) { Logger.Info(args...) }

func Infof(format string, args ...interface{}) { Logger.Infof(format, args...) }

func Infow(msg string, keysAndValues ...interface{}) { Logger.Infow(msg, keysAndValues...) }

func Warn(args ...interface{}) { Logger.Warn(args...) }

func Warnf(format string, args ...interface{}) { Logger.Warnf(format, args...) }

func Warnw(msg string, keysAndValues ...interface{}) { Logger.Warnw(msg, keysAndValues...) }

func Error(args ...interface{}) { Logger.Error(args...) }

func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }

func Errorw(msg string, keysAndValues ...interface{}) { Logger.Errorw(msg, keysAndValues...) }
