// Package harness provides E2E testing utilities for svcclient.
package harness

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/svcclient/e2e/testserver"
)

// E2EHarness is the main test orchestrator.
type E2EHarness struct {
	server  *testserver.Server
	tmpDir  string
	timeout time.Duration
}

// Config configures the harness.
type Config struct {
	ServerHandlers map[string]http.HandlerFunc
	Timeout        time.Duration // Default: 5 seconds
}

// New creates a new E2E harness.
func New(t *testing.T, cfg Config) *E2EHarness {
	t.Helper()

	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	h := &E2EHarness{
		timeout: cfg.Timeout,
	}

	tmpDir, err := os.MkdirTemp("", "svcclient-e2e-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	h.tmpDir = tmpDir

	if len(cfg.ServerHandlers) > 0 {
		h.server = testserver.New(cfg.ServerHandlers)
	}

	for _, key := range []string{"SVCCLIENT_PROXY", "SVCCLIENT_COOKIE_DIR", "SVCCLIENT_BACKEND"} {
		t.Setenv(key, "")
	}

	t.Cleanup(h.cleanup)
	return h
}

func (h *E2EHarness) cleanup() {
	if h.server != nil {
		h.server.Close()
	}
	os.RemoveAll(h.tmpDir)
}

// Server returns the test server.
func (h *E2EHarness) Server() *testserver.Server {
	return h.server
}

// Domain returns the host:port of the test server.
func (h *E2EHarness) Domain() string {
	if h.server == nil {
		return ""
	}
	return h.server.Domain()
}

// CookieDir returns the directory cookie files are written to.
func (h *E2EHarness) CookieDir() string {
	return filepath.Join(h.tmpDir, "cookies")
}

// CLI returns a CLI runner for this harness.
func (h *E2EHarness) CLI() *CLIRunner {
	return &CLIRunner{harness: h}
}
