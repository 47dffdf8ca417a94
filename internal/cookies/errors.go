package cookies

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrStoreClosed = errors.New("cookie store is closed")
)

// ValidationKind classifies a cookie validation failure.
type ValidationKind string

const (
	// MissingField means the name or value attribute is absent.
	MissingField ValidationKind = "missing_field"
	// InvalidCharacter means the name or value contains a disallowed character.
	InvalidCharacter ValidationKind = "invalid_character"
	// InvalidDate means the expires attribute could not be parsed.
	InvalidDate ValidationKind = "invalid_date"
	// MissingValue means domain or path is empty and cannot be derived.
	MissingValue ValidationKind = "missing_value"
)

// Sentinels for errors.Is checks against a ValidationError.
var (
	ErrMissingField     = &ValidationError{Kind: MissingField}
	ErrInvalidCharacter = &ValidationError{Kind: InvalidCharacter}
	ErrInvalidDate      = &ValidationError{Kind: InvalidDate}
	ErrMissingValue     = &ValidationError{Kind: MissingValue}
)

// ValidationError reports a malformed cookie.
type ValidationError struct {
	Kind    ValidationKind
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return "invalid cookie: " + string(e.Kind)
	}
	return fmt.Sprintf("invalid cookie (%s): %s", e.Kind, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is matches any ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// DomainMismatchError is returned when a setter host tries to plant a cookie
// for a domain it does not belong to.
type DomainMismatchError struct {
	Host   string
	Domain string
}

func (e *DomainMismatchError) Error() string {
	return fmt.Sprintf("domain %s cannot set cookies for %s", e.Host, e.Domain)
}

// Reason returns a short label for metrics and logs.
func Reason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return string(ve.Kind)
	}
	var de *DomainMismatchError
	if errors.As(err, &de) {
		return "domain_mismatch"
	}
	return "unknown"
}

func newValidationError(kind ValidationKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
