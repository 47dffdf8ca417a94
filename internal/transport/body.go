package transport

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultHeaders returns the headers every request carries unless overridden.
func DefaultHeaders(cfg Config) http.Header {
	h := http.Header{}
	h.Set("User-Agent", cfg.UserAgent)
	h.Set("Accept", "*/*")
	h.Set("Accept-Encoding", "gzip, deflate")
	return h
}

// encodeBody serializes the request payload and reports its content type.
func encodeBody(req *Request) ([]byte, string, error) {
	switch {
	case req.Form != nil && req.JSON != nil:
		return nil, "", errors.New("request cannot carry both form and JSON body")
	case req.Form != nil:
		return []byte(req.Form.Encode()), "application/x-www-form-urlencoded", nil
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode JSON body: %w", err)
		}
		return data, "application/json", nil
	}
	return nil, "", nil
}

// newHTTPRequest builds a request with default headers, caller overrides and
// the configured Host.
func newHTTPRequest(ctx context.Context, cfg Config, method, rawURL string, body []byte, contentType string, header http.Header) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, err
	}

	httpReq.Header = DefaultHeaders(cfg)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, values := range header {
		httpReq.Header.Del(key)
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	host := cfg.Domain
	if h := httpReq.Header.Get("Host"); h != "" {
		host = h
		httpReq.Header.Del("Host")
	}
	if host != "" {
		httpReq.Host = host
	}

	return httpReq, nil
}

// readBody reads and, if needed, decompresses a response body.
func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return raw, nil
	}

	var r io.ReadCloser
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		r, err = gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode gzip body: %w", err)
		}
	case "deflate":
		// Servers send either zlib-wrapped or raw deflate data.
		r, err = zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			r = flate.NewReader(bytes.NewReader(raw))
		}
	default:
		return raw, nil
	}
	defer r.Close()

	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	return decoded, nil
}
