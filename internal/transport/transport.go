// Package transport provides the two interchangeable HTTP backends used by
// the service client. Both speak the same Adapter interface and differ only
// in wire mechanics and in the native shape they keep cookies in.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/artpar/svcclient/internal/cookies"
)

// Kind selects a transport implementation.
type Kind string

const (
	// KindModern is the net/http client based backend.
	KindModern Kind = "modern"
	// KindLegacy is the HTTP/1.1 round-tripper based backend.
	KindLegacy Kind = "legacy"
)

// ParseKind parses a transport name; empty selects the modern backend.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindModern:
		return KindModern, nil
	case KindLegacy:
		return KindLegacy, nil
	}
	return "", fmt.Errorf("unknown transport %q (want %q or %q)", s, KindModern, KindLegacy)
}

// Config holds settings shared by both backends.
type Config struct {
	// Domain is sent as the Host header.
	Domain string
	// UserAgent is sent as the User-Agent header.
	UserAgent string
	// Proxy routes every request through host:port or scheme://host:port.
	Proxy string
	// Timeout bounds a whole call including redirects. Zero disables it.
	Timeout time.Duration
}

// Request is a single call handed to an Adapter.
type Request struct {
	Method string
	URL    string
	// Form is sent as an application/x-www-form-urlencoded body.
	Form url.Values
	// JSON is marshalled and sent as an application/json body.
	JSON any
	// Header overrides the default headers.
	Header http.Header
	// Cookies are the canonical cookies the backend may send.
	Cookies []*cookies.Cookie
}

// Harvested is a cookie captured off the wire, in attribute form, together
// with the URL of the response that set it.
type Harvested struct {
	Setter *url.URL
	Fields cookies.Raw
}

// Response is the outcome of a call, whatever its status code.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the final URL after redirects.
	URL     *url.URL
	Cookies []Harvested
}

// Adapter performs a request/response exchange. Adapters own wire-level
// cookie handling during a call but never persist cookies.
type Adapter interface {
	// Name returns the backend identifier.
	Name() string

	// Send executes the request, following redirects.
	Send(ctx context.Context, req *Request) (*Response, error)
}

// New creates the adapter selected by kind.
func New(kind Kind, cfg Config) (Adapter, error) {
	switch kind {
	case KindModern, "":
		return NewModern(cfg)
	case KindLegacy:
		return NewLegacy(cfg)
	}
	return nil, fmt.Errorf("unknown transport %q", kind)
}
