// Package log provides the process-wide zap logger used by the driver and
// the evaluation harness. The estimator itself never logs.
package log

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	mu         sync.RWMutex
	baseLogger = zap.NewNop()
	log        = baseLogger.Sugar()
)

// Init replaces the no-op default with a development logger when debug is
// set and a production logger otherwise.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	Set(zapLogger)
	return nil
}

// Set installs an existing logger, e.g. zaptest's logger in tests.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	baseLogger = l
	log = l.Sugar()
}

// GetZapLogger returns the base zap logger
func GetZapLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}

func sugared() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Sync flushes any buffered log entries
func Sync() {
	_ = sugared().Sync()
}

func Debugw(msg string, keysAndValues ...interface{}) {
	sugared().Debugw(msg, keysAndValues...)
}

func Infof(template string, args ...interface{}) {
	sugared().Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	sugared().Infow(msg, keysAndValues...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	sugared().Warnw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	sugared().Errorw(msg, keysAndValues...)
}

// exit is replaced in tests.
var exit = os.Exit

// Fatalf logs at error level, flushes the logger and exits with status 1.
// Deferred calls in the caller do not run, so the flush happens here.
func Fatalf(template string, args ...interface{}) {
	l := sugared()
	l.Errorf(template, args...)
	_ = l.Sync()
	exit(1)
}
