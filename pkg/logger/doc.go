// Package logger provides a structured logging interface for the gallery scraper.
//
// It wraps zerolog and adds:
//   - Log levels (debug, info, warn/warning, error)
//   - Structured fields on events and on derived loggers
//   - Coloured console output, suppressed in quiet mode
//   - An optional log file, truncated at the start of each run
//   - A process-wide logger tagged with a per-run id
//
// Basic Usage:
//
//	runID, err := logger.Initialize(&cfg.Logging)
//
//	logger.Info("scrape started")
//	logger.WithField("url", pageURL).Info("fetching page")
//	logger.WithError(err).Warn("candidate skipped")
//
// Components take a Logger in their constructors; tests pass
// NewNopLogger() or NewTestLogger() to inspect what was logged.
package logger
