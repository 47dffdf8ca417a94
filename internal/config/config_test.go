package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/svcclient/internal/service"
	"github.com/artpar/svcclient/internal/transport"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvProxy, EnvCookieDir, EnvBackend} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "svcclient.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
scheme: http
domain: api.example.com:8080
proxy: 127.0.0.1:3128
backend: legacy
decode: xml
timeout: 15s
library_name: acme
version: "2.1"
cookies:
  mode: sqlite
  path: /var/lib/svcclient/cookies.db
`)

	f, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, f.Validate())

	cfg, err := f.ServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, service.Config{
		Scheme:      "http",
		Domain:      "api.example.com:8080",
		Proxy:       "127.0.0.1:3128",
		Cookies:     service.CookieConfig{Mode: service.CookiesSQLite, Path: "/var/lib/svcclient/cookies.db"},
		Decode:      service.DecodeXML,
		Backend:     transport.KindLegacy,
		LibraryName: "acme",
		Version:     "2.1",
		Timeout:     15 * time.Second,
	}, cfg)
	assert.Equal(t, "acme/2.1", cfg.UserAgent())
}

func TestLoad_Minimal(t *testing.T) {
	clearEnv(t)
	f, err := Load(writeConfig(t, "domain: api.example.com\n"))
	require.NoError(t, err)

	cfg, err := f.ServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, service.CookiesNone, cfg.Cookies.Mode)
	assert.Equal(t, service.DecodeJSONMap, cfg.Decode)
	assert.Equal(t, transport.KindModern, cfg.Backend)
	assert.Zero(t, cfg.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "domain: x.com\nunknown_key: 1\n"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeConfig(t, "domain: [unclosed\n"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvProxy, "socks5://127.0.0.1:1080")
	t.Setenv(EnvBackend, "legacy")
	t.Setenv(EnvCookieDir, "/tmp/svc-cookies")

	f, err := Load(writeConfig(t, "domain: api.example.com\nproxy: 10.0.0.1:80\n"))
	require.NoError(t, err)

	cfg, err := f.ServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, "socks5://127.0.0.1:1080", cfg.Proxy)
	assert.Equal(t, transport.KindLegacy, cfg.Backend)
	assert.Equal(t, service.CookieConfig{Mode: service.CookiesFile, Path: "/tmp/svc-cookies"}, cfg.Cookies)
}

func TestServiceConfig_DefaultCookieDir(t *testing.T) {
	f := &File{Domain: "api.example.com", Cookies: Cookies{Mode: "file"}}

	cfg, err := f.ServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultCookieDir(), cfg.Cookies.Path)
	assert.Equal(t, "cookies", filepath.Base(cfg.Cookies.Path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		file File
		want string
	}{
		{name: "missing domain", file: File{}, want: "domain is required"},
		{name: "bad timeout", file: File{Domain: "x.com", Timeout: "soon"}, want: "invalid timeout"},
		{name: "bad decode", file: File{Domain: "x.com", Decode: "csv"}, want: "unknown decode strategy"},
		{name: "bad backend", file: File{Domain: "x.com", Backend: "curl"}, want: "unknown transport"},
		{name: "bad cookie mode", file: File{Domain: "x.com", Cookies: Cookies{Mode: "disk"}}, want: "unknown cookie mode"},
		{name: "sqlite without path", file: File{Domain: "x.com", Cookies: Cookies{Mode: "sqlite"}}, want: "requires a path"},
		{name: "bad scheme", file: File{Domain: "x.com", Scheme: "gopher"}, want: "unsupported scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.file.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
