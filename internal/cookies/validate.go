package cookies

import (
	"errors"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// separators that may not appear in a cookie name or value.
const separators = `()<>@,;:\"/[]?={}`

var canonicalExpires = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\+0000$`)

// expiresLayouts are tried before falling back to dateparse.
var expiresLayouts = []string{
	ExpiresLayout,
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 02-Jan-2006 15:04:05 MST",
	"Mon, 02-Jan-06 15:04:05 MST",
	time.RFC850,
	time.ANSIC,
	time.RFC3339,
}

// Validate checks a raw cookie and returns its canonical form.
//
// When setter is non-nil, a missing domain or path is derived from it and
// the setter host must domain-match the cookie domain. Without a setter the
// cookie must carry both domain and path and no domain check is made.
func Validate(raw Raw, setter *url.URL) (*Cookie, error) {
	name, ok := raw[FieldName]
	if !ok || name == "" {
		return nil, newValidationError(MissingField, "cookie should contain name and value fields")
	}
	value, ok := raw[FieldValue]
	if !ok {
		return nil, newValidationError(MissingField, "cookie should contain name and value fields")
	}
	if hasInvalidChar(name) {
		return nil, newValidationError(InvalidCharacter, "invalid cookie name %q", name)
	}
	if hasInvalidChar(value) {
		return nil, newValidationError(InvalidCharacter, "invalid value for cookie %q", name)
	}

	c := &Cookie{
		Name:   name,
		Value:  value,
		Domain: normalizeDomain(raw[FieldDomain]),
		Path:   raw[FieldPath],
		Secure: parseSecure(raw[FieldSecure]),
	}

	if exp := strings.TrimSpace(raw[FieldExpires]); exp != "" {
		t, err := NormalizeExpires(exp)
		if err != nil {
			return nil, err
		}
		c.Expires = t
	}

	if c.Domain == "" || c.Path == "" {
		if setter == nil {
			return nil, newValidationError(MissingValue, "cookie %q misses domain and/or path, setter URL needed", name)
		}
		if c.Domain == "" {
			host := strings.ToLower(setter.Hostname())
			if host == "" {
				return nil, newValidationError(MissingValue, "setter URL has no host, cannot set domain of cookie %q", name)
			}
			c.Domain = host
		}
		if c.Path == "" {
			c.Path = directory(setter.Path)
		}
	}

	if setter != nil {
		host := strings.ToLower(setter.Hostname())
		if !DomainMatch(host, c.Domain) {
			return nil, &DomainMismatchError{Host: host, Domain: c.Domain}
		}
	}

	return c, nil
}

// DomainMatch reports whether host may set or receive cookies for domain:
// host equals domain or ends with "." + domain.
func DomainMatch(host, domain string) bool {
	host = strings.ToLower(host)
	domain = normalizeDomain(domain)
	if host == "" || domain == "" {
		return false
	}
	if host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}

// MaxExpires is the latest expiry the canonical layout can represent.
// Later instants are clamped to it.
var MaxExpires = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// minExpires is the earliest stored expiry. Any earlier instant has passed
// just the same.
var minExpires = time.Unix(0, 0).UTC()

// NormalizeExpires parses a UNIX timestamp or a date string and returns the
// instant in UTC, truncated to whole seconds and clamped to the range the
// canonical layout can represent.
func NormalizeExpires(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return unixExpires(ts), nil
	}
	if f, err := strconv.ParseFloat(s, 64); (err == nil || errors.Is(err, strconv.ErrRange)) && !math.IsNaN(f) {
		switch {
		case f >= float64(MaxExpires.Unix()):
			return MaxExpires, nil
		case f <= 0:
			return minExpires, nil
		}
		return unixExpires(int64(f)), nil
	}
	if canonicalExpires.MatchString(s) {
		if t, err := time.Parse(ExpiresLayout, s); err == nil {
			return clampExpires(t), nil
		}
	}
	for _, layout := range expiresLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return clampExpires(t), nil
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, &ValidationError{
			Kind:    InvalidDate,
			Message: "cannot parse expires " + strconv.Quote(s),
			Cause:   err,
		}
	}
	return clampExpires(t), nil
}

// MaxAgeExpires turns a Max-Age attribute received at now into an absolute
// UNIX timestamp. A non-positive Max-Age yields "0", a deletion.
func MaxAgeExpires(now time.Time, maxAge int64) string {
	if maxAge <= 0 {
		return "0"
	}
	limit := MaxExpires.Unix()
	if maxAge > limit-now.Unix() {
		return strconv.FormatInt(limit, 10)
	}
	return strconv.FormatInt(now.Unix()+maxAge, 10)
}

func unixExpires(ts int64) time.Time {
	switch {
	case ts > MaxExpires.Unix():
		return MaxExpires
	case ts < 0:
		return minExpires
	}
	return time.Unix(ts, 0).UTC()
}

func clampExpires(t time.Time) time.Time {
	t = t.UTC().Truncate(time.Second)
	switch {
	case t.After(MaxExpires):
		return MaxExpires
	case t.Before(minExpires):
		return minExpires
	}
	return t
}

// FormatExpires renders t in the canonical expiry layout.
func FormatExpires(t time.Time) string {
	return clampExpires(t).Format(ExpiresLayout)
}

func hasInvalidChar(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsControl(r) || unicode.IsSpace(r) || strings.ContainsRune(separators, r)
	})
}

func normalizeDomain(d string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), ".")
}

// directory returns the path up to and including its last slash.
func directory(p string) string {
	if p == "" {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "/"
	}
	return p[:i+1]
}

func parseSecure(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "secure", "on":
		return true
	}
	return false
}
