package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyRedirects is returned when a call exceeds MaxRedirects hops.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrMethodChange is returned when a redirect would change the request method.
	ErrMethodChange = errors.New("redirect would change request method")
	// ErrSchemeDowngrade is returned when a redirect goes from https to http.
	ErrSchemeDowngrade = errors.New("redirect would downgrade scheme")
	// ErrUnsupportedProxy is returned for proxy URLs with an unknown scheme.
	ErrUnsupportedProxy = errors.New("unsupported proxy scheme")
	// ErrInvalidProxy is returned for proxy addresses that cannot be parsed.
	ErrInvalidProxy = errors.New("invalid proxy address")
)

// Error is returned for failed calls: a non-2xx response, or a network
// failure when StatusCode is zero.
type Error struct {
	// StatusCode is the HTTP status code, zero for network failures.
	StatusCode int

	// Body is the response body when available, for diagnostics.
	Body []byte

	// URL is the requested URL.
	URL string

	// Cause is the underlying error.
	Cause error

	// Cookies are the cookies set by responses received before the failure,
	// such as earlier redirect hops.
	Cookies []Harvested
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request to %s failed with status %d: %s", e.URL, e.StatusCode, truncate(e.Body, 256))
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

func truncate(b []byte, n int) string {
	if len(b) == 0 {
		return "body:empty"
	}
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
