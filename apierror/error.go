// Package apierror defines the error returned when a lens endpoint answers
// with a non-success HTTP status.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxBodyText limits how much of a response body is carried in an error, so
// that an HTML error page does not become a lens title.
const maxBodyText = 200

// Error is an HTTP status error from a lens endpoint. It keeps the status
// code so that callers can tell client errors from server errors.
type Error struct {
	err    error
	status int
}

func New(err error, status int) *Error {
	return &Error{
		err:    err,
		status: status,
	}
}

// FromResponse creates an error from a response status and body. The body
// text, trimmed and truncated, becomes the error message.
func FromResponse(status int, body []byte) error {
	var err error
	text := strings.TrimSpace(string(body))
	if len(text) > maxBodyText {
		text = strings.ToValidUTF8(text[:maxBodyText], "") + "…"
	}
	if text != "" {
		err = errors.New(text)
	}
	if status == 0 {
		return err
	}
	return New(err, status)
}

// Error returns the status line followed by any body text, for example
// "404 Not Found: no such ticket".
func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.status != 0 {
		if text := http.StatusText(e.status); text != "" {
			parts = append(parts, fmt.Sprintf("%d %s", e.status, text))
		} else {
			parts = append(parts, fmt.Sprintf("%d", e.status))
		}
	}
	if e.err != nil {
		parts = append(parts, e.err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Status() int {
	return e.status
}

// Temporary reports whether the status indicates a server-side or throttling
// failure that may succeed if requested again.
func (e *Error) Temporary() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

func (e *Error) Unwrap() error {
	return e.err
}

// Status returns the HTTP status carried by err, or 0 if err is not an Error.
func Status(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status()
	}
	return 0
}
