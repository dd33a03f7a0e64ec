// Package zaplog implements ports.Logger over zap.
package zaplog

import "go.uber.org/zap"

// Logger adapts a zap.Logger to the two-level logging port the services
// consume.
type Logger struct {
	zl *zap.Logger
}

// New builds a production zap logger.
func New() (*Logger, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Logger{zl: zl}, nil
}

// Wrap adapts an existing zap logger.
func Wrap(zl *zap.Logger) *Logger {
	return &Logger{zl: zl}
}

func (l *Logger) Debug(message string) {
	l.zl.Debug(message)
}

func (l *Logger) Error(message string) {
	l.zl.Error(message)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// NoOp discards everything; used in tests.
type NoOp struct{}

func (NoOp) Debug(string) {}
func (NoOp) Error(string) {}
