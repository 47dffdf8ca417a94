package service

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/artpar/svcclient/internal/transport"
)

// Scheme constants.
const (
	SchemeHTTPS = "https"
	SchemeHTTP  = "http"
)

// DefaultLibraryName is used in the User-Agent when none is configured.
const DefaultLibraryName = "svcclient"

// DefaultVersion is used in the User-Agent when none is configured.
const DefaultVersion = "0.1.0"

// CookieMode selects where cookies are kept between calls.
type CookieMode string

const (
	// CookiesNone disables cookie handling.
	CookiesNone CookieMode = "none"
	// CookiesInMemory keeps cookies for the lifetime of the client.
	CookiesInMemory CookieMode = "memory"
	// CookiesFile persists one JSON file per service under a directory.
	CookiesFile CookieMode = "file"
	// CookiesSQLite persists cookies in a SQLite database.
	CookiesSQLite CookieMode = "sqlite"
)

// ParseCookieMode parses a cookie mode name; empty disables cookies.
func ParseCookieMode(s string) (CookieMode, error) {
	switch m := CookieMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return CookiesNone, nil
	case CookiesNone, CookiesInMemory, CookiesFile, CookiesSQLite:
		return m, nil
	}
	return "", fmt.Errorf("unknown cookie mode %q", s)
}

// DecodeStrategy selects how a response body is turned into a value.
type DecodeStrategy string

const (
	// DecodeRaw returns the body as a string.
	DecodeRaw DecodeStrategy = "raw"
	// DecodeJSONMap decodes a JSON object into map[string]any.
	DecodeJSONMap DecodeStrategy = "json_map"
	// DecodeJSONObject decodes any JSON value.
	DecodeJSONObject DecodeStrategy = "json_object"
	// DecodeXML parses the body into an *etree.Document.
	DecodeXML DecodeStrategy = "xml"
	// DecodeHTML returns the body as a string.
	DecodeHTML DecodeStrategy = "html"
)

// ParseDecode parses a decode strategy name; empty selects DecodeJSONMap.
func ParseDecode(s string) (DecodeStrategy, error) {
	switch d := DecodeStrategy(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DecodeJSONMap, nil
	case DecodeRaw, DecodeJSONMap, DecodeJSONObject, DecodeXML, DecodeHTML:
		return d, nil
	case "json", "map", "array":
		return DecodeJSONMap, nil
	case "object":
		return DecodeJSONObject, nil
	}
	return "", fmt.Errorf("unknown decode strategy %q", s)
}

// CookieConfig configures cookie persistence.
type CookieConfig struct {
	Mode CookieMode
	// Path is the directory for CookiesFile and the database file for
	// CookiesSQLite.
	Path string
}

// Config configures a Client.
type Config struct {
	// Scheme is https (default) or http.
	Scheme string
	// Domain is the service host, optionally with a port.
	Domain string
	// Proxy is host:port or scheme://host:port; empty disables it.
	Proxy string
	// Cookies configures cookie persistence.
	Cookies CookieConfig
	// Decode is the default decode strategy for responses.
	Decode DecodeStrategy
	// Backend selects the transport implementation.
	Backend transport.Kind
	// LibraryName and Version make up the User-Agent.
	LibraryName string
	Version     string
	// Timeout bounds every call. Zero disables it.
	Timeout time.Duration
}

// WithDefaults returns a copy of c with empty fields filled in and names
// normalized.
func (c Config) WithDefaults() Config {
	c.Domain = strings.TrimRight(strings.TrimSpace(c.Domain), "/")
	if c.Scheme == "" {
		c.Scheme = SchemeHTTPS
	}
	c.Scheme = strings.ToLower(c.Scheme)
	if m, err := ParseCookieMode(string(c.Cookies.Mode)); err == nil {
		c.Cookies.Mode = m
	}
	if d, err := ParseDecode(string(c.Decode)); err == nil {
		c.Decode = d
	}
	if k, err := transport.ParseKind(strings.ToLower(string(c.Backend))); err == nil {
		c.Backend = k
	}
	if c.LibraryName == "" {
		c.LibraryName = DefaultLibraryName
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error

	switch c.Scheme {
	case SchemeHTTPS, SchemeHTTP:
	default:
		errs = append(errs, fmt.Errorf("unsupported scheme %q", c.Scheme))
	}

	if c.Domain == "" {
		errs = append(errs, errors.New("domain is required"))
	} else if strings.ContainsAny(c.Domain, "/?#@ ") {
		errs = append(errs, fmt.Errorf("invalid domain %q", c.Domain))
	}

	if _, err := transport.ParseProxy(c.Proxy); err != nil {
		errs = append(errs, fmt.Errorf("invalid proxy %q: %w", c.Proxy, err))
	}

	if _, err := ParseCookieMode(string(c.Cookies.Mode)); err != nil {
		errs = append(errs, err)
	} else if (c.Cookies.Mode == CookiesFile || c.Cookies.Mode == CookiesSQLite) && c.Cookies.Path == "" {
		errs = append(errs, fmt.Errorf("cookie mode %q requires a path", c.Cookies.Mode))
	}

	if _, err := ParseDecode(string(c.Decode)); err != nil {
		errs = append(errs, err)
	}

	if _, err := transport.ParseKind(string(c.Backend)); err != nil {
		errs = append(errs, err)
	}

	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// UserAgent returns the User-Agent header value.
func (c Config) UserAgent() string {
	return c.LibraryName + "/" + c.Version
}

// Partition returns the cookie partition key: the service hostname.
func (c Config) Partition() string {
	host := c.Domain
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.Trim(host, "[]"))
}
