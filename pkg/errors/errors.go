package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the stage of the pipeline an error came from
type ErrorType string

const (
	ErrorTypeFetch      ErrorType = "fetch"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeResolution ErrorType = "resolution"
	ErrorTypeWrite      ErrorType = "write"
)

// Error is a typed pipeline error. Code carries the HTTP status for fetch
// errors (0 for transport failures).
type Error struct {
	Type    ErrorType
	Message string
	URL     string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	msg += ": " + e.Message
	if e.URL != "" {
		msg += " <" + e.URL + ">"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewFetchError reports an unreachable page, image or detail page
func NewFetchError(url string, code int, message string, err error) *Error {
	return &Error{Type: ErrorTypeFetch, URL: url, Code: code, Message: message, Err: err}
}

// NewParseError reports a document that could not be read at all
func NewParseError(url string, err error) *Error {
	return &Error{Type: ErrorTypeParse, URL: url, Message: "failed to parse document", Err: err}
}

// NewResolutionError reports a candidate without a usable full-size image URL
func NewResolutionError(url string, message string) *Error {
	return &Error{Type: ErrorTypeResolution, URL: url, Message: message}
}

// NewWriteError reports a filesystem failure while writing an image
func NewWriteError(path string, err error) *Error {
	return &Error{Type: ErrorTypeWrite, URL: path, Message: "failed to write file", Err: err}
}

// TypeOf returns the ErrorType of err, or "" when err is not a pipeline error
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

func IsFetch(err error) bool      { return TypeOf(err) == ErrorTypeFetch }
func IsParse(err error) bool      { return TypeOf(err) == ErrorTypeParse }
func IsResolution(err error) bool { return TypeOf(err) == ErrorTypeResolution }
func IsWrite(err error) bool      { return TypeOf(err) == ErrorTypeWrite }

// IsRetryable checks if an error should be retried. Only fetch errors caused
// by the network or by a transient status are worth another attempt.
func IsRetryable(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	if e.Type != ErrorTypeFetch {
		return false
	}
	return IsRetryableStatusCode(e.Code)
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		return false
	default:
		return statusCode >= 500
	}
}
