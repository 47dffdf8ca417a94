package transport

import (
	"fmt"
	"net/http"
	"net/url"
)

// MaxRedirects is the maximum number of redirect hops followed per call.
const MaxRedirects = 5

// checkHop enforces the strict redirect policy for the hop-th redirect.
func checkHop(prevMethod string, prev *url.URL, nextMethod string, next *url.URL, hop int) error {
	if hop > MaxRedirects {
		return fmt.Errorf("%w: exceeded %d hops (last URL: %s)", ErrTooManyRedirects, MaxRedirects, prev)
	}
	if prevMethod != nextMethod {
		return fmt.Errorf("%w: %s -> %s (%s)", ErrMethodChange, prevMethod, nextMethod, next)
	}
	if prev.Scheme == "https" && next.Scheme == "http" {
		return fmt.Errorf("%w: %s -> %s", ErrSchemeDowngrade, prev, next)
	}
	return nil
}

// redirectPolicy adapts checkHop to http.Client.CheckRedirect.
func redirectPolicy(req *http.Request, via []*http.Request) error {
	prev := via[len(via)-1]
	return checkHop(prev.Method, prev.URL, req.Method, req.URL, len(via))
}

// redirectMethod returns the method a client would use to follow a redirect
// with the given status, mirroring net/http.
func redirectMethod(status int, method string) string {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound:
		if method == http.MethodPost {
			return http.MethodGet
		}
	case http.StatusSeeOther:
		if method != http.MethodGet && method != http.MethodHead {
			return http.MethodGet
		}
	}
	return method
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
