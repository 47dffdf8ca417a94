package transport

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/artpar/svcclient/internal/cookies"
	"golang.org/x/net/http2"
	"golang.org/x/net/publicsuffix"
)

// Modern is the net/http client based backend. It negotiates HTTP/2 where
// available and keeps cookies as *http.Cookie in a standard cookie jar.
type Modern struct {
	httpClient *http.Client
	config     Config
}

// NewModern creates the modern backend.
func NewModern(cfg Config) (*Modern, error) {
	t, err := newHTTPTransport(cfg.Proxy)
	if err != nil {
		return nil, err
	}
	if err := http2.ConfigureTransport(t); err != nil {
		return nil, err
	}

	return &Modern{
		httpClient: &http.Client{
			Transport:     t,
			Timeout:       cfg.Timeout,
			CheckRedirect: redirectPolicy,
		},
		config: cfg,
	}, nil
}

// Name returns the backend identifier.
func (m *Modern) Name() string {
	return string(KindModern)
}

// Send executes a request and returns the response.
func (m *Modern) Send(ctx context.Context, req *Request) (*Response, error) {
	jar, err := newCaptureJar(req.Cookies)
	if err != nil {
		return nil, &Error{URL: req.URL, Cause: err}
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, &Error{URL: req.URL, Cause: err}
	}

	httpReq, err := newHTTPRequest(ctx, m.config, req.Method, req.URL, body, contentType, req.Header)
	if err != nil {
		return nil, &Error{URL: req.URL, Cause: err}
	}

	// Each call gets its own jar; the client is otherwise shared.
	client := *m.httpClient
	client.Jar = jar

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, &Error{URL: req.URL, Cause: err, Cookies: jar.harvested()}
	}
	defer httpResp.Body.Close()

	bodyBytes, err := readBody(httpResp)
	if err != nil {
		return nil, &Error{URL: req.URL, StatusCode: httpResp.StatusCode, Cause: err, Cookies: jar.harvested()}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       bodyBytes,
		URL:        httpResp.Request.URL,
		Cookies:    jar.harvested(),
	}, nil
}

// captureJar is a standard cookie jar that also records every cookie the
// server sets, so they can be handed back to the caller after the call.
type captureJar struct {
	jar *cookiejar.Jar

	mu       sync.Mutex
	captured []Harvested
}

func newCaptureJar(seed []*cookies.Cookie) (*captureJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, err
	}

	for _, c := range seed {
		scheme := "http"
		if c.Secure {
			scheme = "https"
		}
		u := &url.URL{Scheme: scheme, Host: c.Domain, Path: c.Path}
		jar.SetCookies(u, []*http.Cookie{c.ToHTTPCookie()})
	}

	return &captureJar{jar: jar}, nil
}

// SetCookies implements http.CookieJar.
func (j *captureJar) SetCookies(u *url.URL, hcs []*http.Cookie) {
	j.jar.SetCookies(u, hcs)

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, hc := range hcs {
		setter := *u
		j.captured = append(j.captured, Harvested{
			Setter: &setter,
			Fields: cookies.FromHTTPCookie(hc),
		})
	}
}

// Cookies implements http.CookieJar.
func (j *captureJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *captureJar) harvested() []Harvested {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Harvested(nil), j.captured...)
}
