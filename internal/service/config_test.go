package service

import (
	"testing"
	"time"

	"github.com/artpar/svcclient/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{Domain: "api.example.com/"}.WithDefaults()

	assert.Equal(t, "api.example.com", cfg.Domain)
	assert.Equal(t, SchemeHTTPS, cfg.Scheme)
	assert.Equal(t, CookiesNone, cfg.Cookies.Mode)
	assert.Equal(t, DecodeJSONMap, cfg.Decode)
	assert.Equal(t, transport.KindModern, cfg.Backend)
	assert.Equal(t, "svcclient/"+DefaultVersion, cfg.UserAgent())
	require.NoError(t, cfg.Validate())
}

func TestConfig_Normalizes(t *testing.T) {
	cfg := Config{
		Domain:  "api.example.com",
		Scheme:  "HTTP",
		Cookies: CookieConfig{Mode: "FILE", Path: "/tmp/c"},
		Decode:  "object",
		Backend: "LEGACY",
	}.WithDefaults()

	assert.Equal(t, SchemeHTTP, cfg.Scheme)
	assert.Equal(t, CookiesFile, cfg.Cookies.Mode)
	assert.Equal(t, DecodeJSONObject, cfg.Decode)
	assert.Equal(t, transport.KindLegacy, cfg.Backend)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "missing domain", cfg: Config{}, want: "domain is required"},
		{name: "bad scheme", cfg: Config{Domain: "x.com", Scheme: "ftp"}, want: "unsupported scheme"},
		{name: "domain with path", cfg: Config{Domain: "x.com/api"}, want: "invalid domain"},
		{name: "bad proxy", cfg: Config{Domain: "x.com", Proxy: "gopher://p:1"}, want: "invalid proxy"},
		{name: "file mode without path", cfg: Config{Domain: "x.com", Cookies: CookieConfig{Mode: CookiesFile}}, want: "requires a path"},
		{name: "unknown cookie mode", cfg: Config{Domain: "x.com", Cookies: CookieConfig{Mode: "disk"}}, want: "unknown cookie mode"},
		{name: "unknown decode", cfg: Config{Domain: "x.com", Decode: "yaml"}, want: "unknown decode strategy"},
		{name: "unknown backend", cfg: Config{Domain: "x.com", Backend: "curl"}, want: "unknown transport"},
		{name: "negative timeout", cfg: Config{Domain: "x.com", Timeout: -time.Second}, want: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.WithDefaults().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_Partition(t *testing.T) {
	assert.Equal(t, "api.example.com", Config{Domain: "API.example.com"}.Partition())
	assert.Equal(t, "127.0.0.1", Config{Domain: "127.0.0.1:8080"}.Partition())
	assert.Equal(t, "::1", Config{Domain: "[::1]:8080"}.Partition())
}

func TestParseDecode(t *testing.T) {
	for in, want := range map[string]DecodeStrategy{
		"":            DecodeJSONMap,
		"raw":         DecodeRaw,
		"json":        DecodeJSONMap,
		"array":       DecodeJSONMap,
		"object":      DecodeJSONObject,
		"json_object": DecodeJSONObject,
		"XML":         DecodeXML,
		"html":        DecodeHTML,
	} {
		got, err := ParseDecode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDecode("yaml")
	assert.Error(t, err)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid service config")
}
