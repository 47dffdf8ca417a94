package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/svcclient/internal/cookies"
)

// Legacy is an HTTP/1.1 backend that drives the round-tripper directly,
// follows redirects itself and keeps cookies in attribute form.
type Legacy struct {
	rt     http.RoundTripper
	config Config
}

// NewLegacy creates the legacy backend.
func NewLegacy(cfg Config) (*Legacy, error) {
	t, err := newHTTPTransport(cfg.Proxy)
	if err != nil {
		return nil, err
	}
	// An empty, non-nil map keeps the transport on HTTP/1.1.
	t.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}

	return &Legacy{rt: t, config: cfg}, nil
}

// Name returns the backend identifier.
func (l *Legacy) Name() string {
	return string(KindLegacy)
}

// Send executes a request, following redirects under the strict policy.
func (l *Legacy) Send(ctx context.Context, req *Request) (*Response, error) {
	if l.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.Timeout)
		defer cancel()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, &Error{URL: req.URL, Cause: err}
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, &Error{URL: req.URL, Cause: err}
	}

	jar := newRawJar(req.Cookies)
	method := req.Method
	cfg := l.config
	var harvested []Harvested

	for hop := 0; ; hop++ {
		httpReq, err := newHTTPRequest(ctx, cfg, method, u.String(), body, contentType, req.Header)
		if err != nil {
			return nil, &Error{URL: req.URL, Cause: err, Cookies: harvested}
		}
		if header := jar.header(u); header != "" {
			httpReq.Header.Set("Cookie", header)
		}

		httpResp, err := l.rt.RoundTrip(httpReq)
		if err != nil {
			return nil, &Error{URL: req.URL, Cause: err, Cookies: harvested}
		}

		for _, line := range httpResp.Header.Values("Set-Cookie") {
			raw, ok := parseSetCookie(line, time.Now())
			if !ok {
				continue
			}
			setter := *u
			harvested = append(harvested, Harvested{Setter: &setter, Fields: raw})
			jar.store(raw, u)
		}

		loc := httpResp.Header.Get("Location")
		if !isRedirect(httpResp.StatusCode) || loc == "" {
			defer httpResp.Body.Close()
			bodyBytes, err := readBody(httpResp)
			if err != nil {
				return nil, &Error{URL: req.URL, StatusCode: httpResp.StatusCode, Cause: err, Cookies: harvested}
			}
			return &Response{
				StatusCode: httpResp.StatusCode,
				Header:     httpResp.Header,
				Body:       bodyBytes,
				URL:        u,
				Cookies:    harvested,
			}, nil
		}

		io.Copy(io.Discard, httpResp.Body)
		httpResp.Body.Close()

		target, err := u.Parse(loc)
		if err != nil {
			return nil, &Error{URL: req.URL, Cookies: harvested, Cause: fmt.Errorf("invalid redirect location %q: %w", loc, err)}
		}
		nextMethod := redirectMethod(httpResp.StatusCode, method)
		if err := checkHop(method, u, nextMethod, target, hop+1); err != nil {
			return nil, &Error{URL: req.URL, Cause: err, Cookies: harvested}
		}

		// The configured Host only applies to the service itself.
		if target.Host != u.Host {
			cfg.Domain = ""
		}
		u = target
	}
}

// rawJar holds the cookies of a single legacy call in attribute form.
type rawJar struct {
	entries []cookies.Raw
}

func newRawJar(seed []*cookies.Cookie) *rawJar {
	j := &rawJar{}
	for _, c := range seed {
		j.entries = append(j.entries, cookies.Serialize(c))
	}
	return j
}

// store adds or replaces a cookie, filling domain and path from the setter.
// Cookies the setter may not set are ignored.
func (j *rawJar) store(raw cookies.Raw, setter *url.URL) {
	c, err := cookies.Validate(raw, setter)
	if err != nil {
		return
	}

	kept := j.entries[:0]
	for _, e := range j.entries {
		if e[cookies.FieldName] == c.Name && e[cookies.FieldDomain] == c.Domain && e[cookies.FieldPath] == c.Path {
			continue
		}
		kept = append(kept, e)
	}
	j.entries = kept

	if !c.IsExpired() {
		j.entries = append(j.entries, cookies.Serialize(c))
	}
}

// header renders the Cookie header for u, longest paths first.
func (j *rawJar) header(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	secure := u.Scheme == "https"

	var matched []*cookies.Cookie
	for _, e := range j.entries {
		c, err := cookies.Validate(e, nil)
		if err != nil || c.IsExpired() {
			continue
		}
		if c.Matches(host, u.EscapedPath(), secure) {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(a, b int) bool {
		return len(matched[a].Path) > len(matched[b].Path)
	})

	parts := make([]string, 0, len(matched))
	for _, c := range matched {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// parseSetCookie splits a Set-Cookie header into attribute form. Max-Age is
// turned into an absolute timestamp and takes precedence over Expires.
func parseSetCookie(line string, now time.Time) (cookies.Raw, bool) {
	parts := strings.Split(line, ";")
	name, value, ok := strings.Cut(parts[0], "=")
	if !ok {
		return nil, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	value = strings.TrimSpace(value)
	if len(value) > 1 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}

	raw := cookies.Raw{
		cookies.FieldName:   name,
		cookies.FieldValue:  value,
		cookies.FieldSecure: "false",
	}

	maxAge := ""
	for _, attr := range parts[1:] {
		key, val, _ := strings.Cut(attr, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		switch key {
		case "expires":
			if val != "" {
				raw[cookies.FieldExpires] = val
			}
		case "max-age":
			maxAge = val
		case "domain":
			if d := strings.TrimPrefix(val, "."); d != "" {
				raw[cookies.FieldDomain] = strings.ToLower(d)
			}
		case "path":
			if strings.HasPrefix(val, "/") {
				raw[cookies.FieldPath] = val
			}
		case "secure":
			raw[cookies.FieldSecure] = "true"
		}
	}

	if maxAge != "" {
		if secs, err := strconv.ParseInt(maxAge, 10, 64); err == nil || errors.Is(err, strconv.ErrRange) {
			raw[cookies.FieldExpires] = cookies.MaxAgeExpires(now, secs)
		}
	}

	return raw, true
}
