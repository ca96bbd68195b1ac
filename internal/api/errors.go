package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a failed call to the analysis service
type ErrorKind string

// Error kinds. The step kinds are used for non-2xx responses; the rest
// describe failures that happen before or after a status is obtained.
const (
	KindUpload    ErrorKind = "UploadError"
	KindJobSubmit ErrorKind = "JobSubmitError"
	KindImprove   ErrorKind = "ImproveError"
	KindDownload  ErrorKind = "DownloadError"
	KindHealth    ErrorKind = "HealthError"
	KindParse     ErrorKind = "ParseError"
	KindNetwork   ErrorKind = "NetworkError"
	KindTimeout   ErrorKind = "TimeoutError"
)

// maxErrorBody bounds how much of a response body an Error message repeats
const maxErrorBody = 2048

// Error is returned by every Client operation.
// Body holds the raw response text whenever a response was received.
type Error struct {
	Op         Operation
	Kind       ErrorKind
	StatusCode int
	Body       string
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Op)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + truncate(e.Body, maxErrorBody)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// statusError builds the error for a non-2xx response
func statusError(op Operation, status int, body []byte) *Error {
	return &Error{
		Op:         op,
		Kind:       op.Kind(),
		StatusCode: status,
		Body:       string(body),
		Message:    "unexpected response",
	}
}

// transportError classifies a failure that produced no usable response
func transportError(op Operation, err error) *Error {
	kind := KindNetwork
	if isTimeout(err) {
		kind = KindTimeout
	}
	return &Error{
		Op:      op,
		Kind:    kind,
		Message: "request failed",
		Cause:   err,
	}
}

// parseError reports a success response whose body could not be used
func parseError(op Operation, status int, body []byte, message string, cause error) *Error {
	return &Error{
		Op:         op,
		Kind:       KindParse,
		StatusCode: status,
		Body:       string(body),
		Message:    message,
		Cause:      cause,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
