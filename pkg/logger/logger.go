// Package logger provides opinionated logging for chatdock.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr. Debug widens the level.
// Logs go to stderr so the TUI can own stdout.
func New(debug bool) *zap.Logger {
	return NewWithOutput(debug, os.Stderr)
}

// NewWithOutput is New with an explicit sink; the chat TUI routes logs
// to a file so they do not corrupt the terminal.
func NewWithOutput(debug bool, w io.Writer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)

	return zap.New(core, zap.AddCaller())
}
