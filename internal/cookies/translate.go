package cookies

import (
	"net/http"
	"time"
)

// ToHTTPCookie converts to the net/http cookie shape.
func (c *Cookie) ToHTTPCookie() *http.Cookie {
	hc := &http.Cookie{
		Name:    c.Name,
		Value:   c.Value,
		Domain:  c.Domain,
		Path:    c.Path,
		Secure:  c.Secure,
		Expires: c.Expires,
	}
	if !c.Expires.IsZero() {
		hc.RawExpires = c.Expires.UTC().Format(http.TimeFormat)
	}
	return hc
}

// FromHTTPCookie converts a net/http cookie to attribute form.
//
// Max-Age wins over Expires; a negative Max-Age becomes timestamp 0 so the
// cookie is treated as a deletion. The original Expires text is kept when
// present so the validator sees what the server sent.
func FromHTTPCookie(hc *http.Cookie) Raw {
	raw := Raw{
		FieldName:   hc.Name,
		FieldValue:  hc.Value,
		FieldSecure: formatBool(hc.Secure),
	}
	if hc.Domain != "" {
		raw[FieldDomain] = hc.Domain
	}
	if hc.Path != "" {
		raw[FieldPath] = hc.Path
	}

	switch {
	case hc.MaxAge > 0:
		raw[FieldExpires] = MaxAgeExpires(time.Now(), int64(hc.MaxAge))
	case hc.MaxAge < 0:
		raw[FieldExpires] = "0"
	case hc.RawExpires != "":
		raw[FieldExpires] = hc.RawExpires
	case !hc.Expires.IsZero():
		raw[FieldExpires] = FormatExpires(hc.Expires)
	}
	return raw
}
