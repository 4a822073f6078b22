package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeHTTPStatus ErrorType = "http_status"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeParsing    ErrorType = "parse"
	ErrorTypeFilesystem ErrorType = "filesystem"
	ErrorTypeLimit      ErrorType = "limit"
)

// Error is a typed failure raised while talking to the portal or writing to disk
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Type) + " error"
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	msg += ": " + e.Message
	if e.URL != "" {
		msg += " [" + e.URL + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given type
func New(t ErrorType, url, message string) *Error {
	return &Error{Type: t, Message: message, URL: url}
}

// Wrap attaches a type and message to an underlying error
func Wrap(t ErrorType, url, message string, err error) *Error {
	return &Error{Type: t, Message: message, URL: url, Err: err}
}

// FromStatus maps a non-2xx HTTP status code to a typed error.
// It returns nil for 2xx codes.
func FromStatus(code int, url string) *Error {
	if code >= 200 && code < 300 {
		return nil
	}

	t := ErrorTypeHTTPStatus
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		t = ErrorTypeAuth
	case http.StatusNotFound, http.StatusGone:
		t = ErrorTypeNotFound
	}

	return &Error{
		Type:    t,
		Message: fmt.Sprintf("unexpected status %d %s", code, http.StatusText(code)),
		Code:    code,
		URL:     url,
	}
}

// IsType reports whether err is, or wraps, an *Error of type t
func IsType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}
