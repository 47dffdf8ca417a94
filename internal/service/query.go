package service

import (
	"net/url"
	"sort"
	"strings"
)

// BuildQuery renders params as an RFC 3986 query string. Keys are sorted,
// multiple values are joined with "," and a pair whose key equals its value
// is written as the bare key.
func BuildQuery(params url.Values) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := strings.Join(params[k], ",")
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		if k == v {
			continue
		}
		b.WriteByte('=')
		b.WriteString(escape(v))
	}
	return b.String()
}

// escape percent-encodes everything outside the RFC 3986 unreserved set.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
