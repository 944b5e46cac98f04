package imageview

import (
	"log/slog"
	"os"
)

// defaultLogger is used when Engine.Logger is nil.
// Structured, leveled logging (rather than the teacher's plain
// fmt.Fprintf-based debugLog) is required here because the error-handling
// table distinguishes fatal, recoverable-warning and quiet-log severities
// that a bare bool-gated helper cannot express.
var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func (e *Engine) logWarn(msg string, args ...any) {
	e.logger().Warn(msg, args...)
}

func (e *Engine) logError(msg string, args ...any) {
	e.logger().Error(msg, args...)
}

func (e *Engine) logDebug(msg string, args ...any) {
	if !e.cfg.Debug {
		return
	}
	e.logger().Debug(msg, args...)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return defaultLogger
}
