// Package log bootstraps the process-wide zap logger.
package log

import (
	"go.uber.org/zap"
)

var Logger *zap.Logger = zap.NewNop()

func InitProductionLogger() {
	Logger, _ = zap.NewProduction()
}

func InitDevelopmentLogger() {
	Logger, _ = zap.NewDevelopment()
}

// Sync flushes buffered log entries; call on shutdown.
func Sync() {
	_ = Logger.Sync()
}
