/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package log

import (
	"sync"
)

// Logger defines privacyd logger interface.
type Logger interface {
	// Debugf uses fmt.Sprintf to log a 'debug' templated message.
	Debugf(format string, args ...interface{})

	// Infof uses fmt.Sprintf to log an 'info' templated message.
	Infof(format string, args ...interface{})

	// Warnf uses fmt.Sprintf to log a 'warning' templated message.
	Warnf(format string, args ...interface{})

	// Errorf uses fmt.Sprintf to log an 'error' templated message.
	Errorf(format string, args ...interface{})

	// Close closes logger underlying resources.
	Close() error
}

// singleton interface
var (
	instMu sync.RWMutex
	inst   Logger
)

// Set sets the default package logger.
func Set(logger Logger) {
	instMu.Lock()
	defer instMu.Unlock()
	if inst != nil {
		_ = inst.Close()
	}
	inst = logger
}

// Unset disables the default package logger.
func Unset() {
	instMu.Lock()
	defer instMu.Unlock()
	if inst != nil {
		_ = inst.Close()
	}
	inst = nil
}

func instance() Logger {
	instMu.RLock()
	defer instMu.RUnlock()
	return inst
}

// Debugf logs a 'debug' message using the default package logger.
func Debugf(format string, args ...interface{}) {
	if l := instance(); l != nil {
		l.Debugf(format, args...)
	}
}

// Infof logs an 'info' message using the default package logger.
func Infof(format string, args ...interface{}) {
	if l := instance(); l != nil {
		l.Infof(format, args...)
	}
}

// Warnf logs a 'warning' message using the default package logger.
func Warnf(format string, args ...interface{}) {
	if l := instance(); l != nil {
		l.Warnf(format, args...)
	}
}

// Errorf logs an 'error' message using the default package logger.
func Errorf(format string, args ...interface{}) {
	if l := instance(); l != nil {
		l.Errorf(format, args...)
	}
}

// Error logs an error value using the default package logger.
func Error(err error) {
	if l := instance(); l != nil {
		l.Errorf("%v", err)
	}
}
