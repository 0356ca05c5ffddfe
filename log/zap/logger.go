/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package zap

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger represents a zap logger implementation.
type Logger struct {
	lg       *zap.Logger
	sgLogger *zap.SugaredLogger
}

// NewLogger creates an initialized zap logger instance.
func NewLogger(level string, outputPath string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	outputPaths := []string{"stdout"}
	if len(outputPath) > 0 {
		outputPaths = append(outputPaths, outputPath)
	}
	cfg.OutputPaths = outputPaths

	logger, _ := cfg.Build()
	return &Logger{
		lg:       logger,
		sgLogger: logger.Sugar(),
	}
}

// Debugf uses fmt.Sprintf to log a 'debug' templated message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.sgLogger.Debugf(format, args...)
}

// Infof uses fmt.Sprintf to log an 'info' templated message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.sgLogger.Infof(format, args...)
}

// Warnf uses fmt.Sprintf to log a 'warning' templated message.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.sgLogger.Warnf(format, args...)
}

// Errorf uses fmt.Sprintf to log an 'error' templated message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.sgLogger.Errorf(format, args...)
}

// Close flushes any buffered log entries.
func (l *Logger) Close() error {
	return l.lg.Sync()
}

func zapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "", "info":
		return zap.InfoLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
