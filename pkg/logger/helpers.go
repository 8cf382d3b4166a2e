package logger

import (
	"github.com/rs/zerolog"

	errs "galleryscraper/pkg/errors"
)

// LogRequest logs HTTP request information
func LogRequest(l Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogDownload logs the outcome of a single gallery candidate
func LogDownload(l Logger, index int, url, path, outcome string, err error) {
	fields := map[string]interface{}{
		"index":   index,
		"url":     url,
		"path":    path,
		"outcome": outcome,
	}

	if err != nil {
		// Filesystem failures are louder than a bad candidate
		if errs.IsWrite(err) {
			l.WithError(err).ErrorWithFields("Candidate failed", fields)
			return
		}
		l.WithError(err).WarnWithFields("Candidate skipped", fields)
		return
	}
	if outcome == "downloaded" {
		l.InfoWithFields("Image downloaded", fields)
		return
	}
	l.InfoWithFields("Image skipped", fields)
}

// LogComponentStart logs the settings a component runs with. l should
// already carry the component field.
func LogComponentStart(l Logger, settings map[string]interface{}) {
	l.InfoWithFields("Component started", settings)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
