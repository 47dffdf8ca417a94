package transport

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/proxy"
)

var supportedProxySchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"socks5": true,
}

// ParseProxy parses a proxy address. A bare host:port means an HTTP proxy.
// An empty address returns nil.
func ParseProxy(addr string) (*url.URL, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, nil
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		return nil, ErrInvalidProxy
	}
	if !supportedProxySchemes[u.Scheme] {
		return nil, ErrUnsupportedProxy
	}
	return u, nil
}

// newHTTPTransport builds the round-tripper shared by both backends, routed
// through the configured proxy when there is one.
func newHTTPTransport(proxyAddr string) (*http.Transport, error) {
	t := &http.Transport{
		// Accept-Encoding is set explicitly and bodies are decoded by the adapter.
		DisableCompression: true,
	}

	u, err := ParseProxy(proxyAddr)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return t, nil
	}

	if u.Scheme == "socks5" {
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{
				User:     u.User.Username(),
				Password: pass,
			}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return nil, err
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			t.DialContext = cd.DialContext
		} else {
			t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
		return t, nil
	}

	t.Proxy = http.ProxyURL(u)
	return t, nil
}
