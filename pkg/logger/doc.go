// Package logger provides structured logging for twhydrate.
//
// It wraps zerolog behind a small Logger interface so components can be
// handed a logger (or a TestLogger in tests) instead of reaching for a
// global. A process-wide logger is still available for the CLI:
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger()
//	log.WithField("root", 12).Info("pulling followers")
//
// Console output goes to stderr so that stdout stays free for command
// output. When logging.file is configured the same events are appended to
// that file.
package logger
