package cookies

import (
	"strings"
	"time"
)

// ExpiresLayout is the canonical representation of a cookie expiry.
// Times are always formatted in UTC, so the offset is rendered as +0000.
const ExpiresLayout = "2006-01-02T15:04:05-0700"

// Cookie is the canonical cookie record shared by every store and transport.
type Cookie struct {
	Name    string
	Value   string
	Domain  string
	Path    string
	Expires time.Time // zero for session cookies
	Secure  bool
}

// Key identifies a cookie for storage and merge purposes.
type Key struct {
	Name   string
	Domain string
	Path   string
}

// Key returns the uniqueness key of the cookie.
func (c *Cookie) Key() Key {
	return Key{Name: c.Name, Domain: c.Domain, Path: c.Path}
}

// IsSession returns true if this is a session cookie (no expiration).
func (c *Cookie) IsSession() bool {
	return c.Expires.IsZero()
}

// ExpiredAt reports whether the cookie expiry is strictly before now.
// Session cookies never expire.
func (c *Cookie) ExpiredAt(now time.Time) bool {
	if c.Expires.IsZero() {
		return false
	}
	return c.Expires.Before(now)
}

// IsExpired returns true if the cookie has expired.
func (c *Cookie) IsExpired() bool {
	return c.ExpiredAt(time.Now())
}

// Matches reports whether the cookie should be sent to host and path.
func (c *Cookie) Matches(host, path string, secure bool) bool {
	if c.Secure && !secure {
		return false
	}
	if !DomainMatch(host, c.Domain) {
		return false
	}
	return pathMatch(path, c.Path)
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == "" {
		reqPath = "/"
	}
	if reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}

// Record is the canonical persisted schema of a cookie.
type Record struct {
	Name    string  `json:"name"`
	Domain  string  `json:"domain"`
	Path    string  `json:"path"`
	Expires *string `json:"expires"`
	Secure  bool    `json:"secure"`
	Value   string  `json:"value"`
}

// ToRecord converts a cookie to its persisted form.
func (c *Cookie) ToRecord() Record {
	r := Record{
		Name:   c.Name,
		Domain: c.Domain,
		Path:   c.Path,
		Secure: c.Secure,
		Value:  c.Value,
	}
	if !c.Expires.IsZero() {
		s := FormatExpires(c.Expires)
		r.Expires = &s
	}
	return r
}

// Raw returns the attribute form of a persisted record, ready for Validate.
func (r Record) Raw() Raw {
	raw := Raw{
		FieldName:   r.Name,
		FieldValue:  r.Value,
		FieldDomain: r.Domain,
		FieldPath:   r.Path,
		FieldSecure: formatBool(r.Secure),
	}
	if r.Expires != nil {
		raw[FieldExpires] = *r.Expires
	}
	return raw
}

// Raw is an unvalidated cookie in attribute form. It is the native cookie
// shape of the legacy transport and the input of Validate.
type Raw map[string]string

// Attribute names used in Raw.
const (
	FieldName    = "name"
	FieldValue   = "value"
	FieldDomain  = "domain"
	FieldPath    = "path"
	FieldExpires = "expires"
	FieldSecure  = "secure"
)

// Serialize converts a cookie to its attribute form.
// Validate(Serialize(c), nil) reproduces c.
func Serialize(c *Cookie) Raw {
	raw := Raw{
		FieldName:   c.Name,
		FieldValue:  c.Value,
		FieldDomain: c.Domain,
		FieldPath:   c.Path,
		FieldSecure: formatBool(c.Secure),
	}
	if !c.Expires.IsZero() {
		raw[FieldExpires] = FormatExpires(c.Expires)
	}
	return raw
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
