// Package config loads service client settings from a YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/svcclient/internal/service"
	"github.com/artpar/svcclient/internal/transport"
)

// Environment variables that override file settings.
const (
	EnvProxy     = "SVCCLIENT_PROXY"
	EnvCookieDir = "SVCCLIENT_COOKIE_DIR"
	EnvBackend   = "SVCCLIENT_BACKEND"
)

// Cookies is the cookie persistence section.
type Cookies struct {
	Mode string `yaml:"mode"`
	Path string `yaml:"path,omitempty"`
}

// File is the on-disk configuration.
type File struct {
	Scheme      string  `yaml:"scheme,omitempty"`
	Domain      string  `yaml:"domain"`
	Proxy       string  `yaml:"proxy,omitempty"`
	Backend     string  `yaml:"backend,omitempty"`
	Decode      string  `yaml:"decode,omitempty"`
	Timeout     string  `yaml:"timeout,omitempty"`
	LibraryName string  `yaml:"library_name,omitempty"`
	Version     string  `yaml:"version,omitempty"`
	Cookies     Cookies `yaml:"cookies,omitempty"`
}

// DefaultCookieDir returns the directory used for file-backed cookies when
// none is configured.
func DefaultCookieDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	return filepath.Join(configDir, "svcclient", "cookies")
}

// Load reads a configuration file and applies environment overrides.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	f, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	f.ApplyEnv()
	return f, nil
}

// Parse decodes YAML content. Unknown keys are rejected.
func Parse(content []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &f, nil
}

// ApplyEnv overrides settings from the environment.
func (f *File) ApplyEnv() {
	if v := os.Getenv(EnvProxy); v != "" {
		f.Proxy = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		f.Backend = v
	}
	if v := os.Getenv(EnvCookieDir); v != "" {
		f.Cookies.Mode = string(service.CookiesFile)
		f.Cookies.Path = v
	}
}

// Validate checks the configuration.
func (f *File) Validate() error {
	cfg, err := f.ServiceConfig()
	if err != nil {
		return err
	}
	return cfg.WithDefaults().Validate()
}

// ServiceConfig converts the file into a service configuration.
func (f *File) ServiceConfig() (service.Config, error) {
	var errs []error

	mode, err := service.ParseCookieMode(f.Cookies.Mode)
	if err != nil {
		errs = append(errs, err)
	}
	path := f.Cookies.Path
	if mode == service.CookiesFile && path == "" {
		path = DefaultCookieDir()
	}

	decode, err := service.ParseDecode(f.Decode)
	if err != nil {
		errs = append(errs, err)
	}

	backend, err := transport.ParseKind(strings.ToLower(f.Backend))
	if err != nil {
		errs = append(errs, err)
	}

	var timeout time.Duration
	if f.Timeout != "" {
		timeout, err = time.ParseDuration(f.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid timeout %q: %w", f.Timeout, err))
		}
	}

	if len(errs) > 0 {
		return service.Config{}, errors.Join(errs...)
	}

	cfg := service.Config{
		Scheme:      f.Scheme,
		Domain:      f.Domain,
		Proxy:       f.Proxy,
		Cookies:     service.CookieConfig{Mode: mode, Path: path},
		Decode:      decode,
		Backend:     backend,
		LibraryName: f.LibraryName,
		Version:     f.Version,
		Timeout:     timeout,
	}
	return cfg, nil
}
