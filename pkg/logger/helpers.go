package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogBatch logs the start of one bulk lookup
func LogBatch(l Logger, mode string, batch, size int) {
	l.InfoWithFields("looking up user records", map[string]interface{}{
		"mode":  mode,
		"batch": batch,
		"size":  size,
	})
}

// LogLookupSummary logs the totals of a lookup flow
func LogLookupSummary(l Logger, mode string, processed, failures int) {
	l.InfoWithFields("lookup finished", map[string]interface{}{
		"mode":            mode,
		"users_processed": processed,
		"failures":        failures,
	})
}

// LogFollowerPage logs follower paging progress for one root
func LogFollowerPage(l Logger, root int64, page, pulled int) {
	l.DebugWithFields("follower page received", map[string]interface{}{
		"root":   root,
		"page":   page,
		"pulled": pulled,
	})
}

// LogRateLimit logs a rate limit wait
func LogRateLimit(l Logger, endpoint string, wait float64) {
	l.WarnWithFields("rate limit reached, waiting for window reset", map[string]interface{}{
		"endpoint":     endpoint,
		"wait_seconds": fmt.Sprintf("%.0f", wait),
	})
}

// OrDefault returns l, or the global logger when l is nil
func OrDefault(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}
	return l
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
