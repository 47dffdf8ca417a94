package harness

import (
	"bytes"
	"context"
	"time"

	"github.com/artpar/svcclient/internal/cli"
)

// CLIResult holds CLI execution results.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CLIRunner executes CLI commands.
type CLIRunner struct {
	harness *E2EHarness
}

// Run executes a CLI command with the given arguments.
func (r *CLIRunner) Run(args ...string) (*CLIResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.harness.timeout)
	defer cancel()

	start := time.Now()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := cli.NewRootCommand("test")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)

	result := &CLIResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		result.ExitCode = 1
	}

	return result, err
}

// Request calls a resource of the test server through the given backend,
// persisting cookies in the harness cookie directory.
func (r *CLIRunner) Request(backend, method, resource string, opts ...string) (*CLIResult, error) {
	args := []string{
		"request", method, resource,
		"--scheme", "http",
		"--domain", r.harness.Domain(),
		"--backend", backend,
		"--cookie-dir", r.harness.CookieDir(),
	}
	args = append(args, opts...)
	return r.Run(args...)
}

// RequestJSON is Request with JSON output.
func (r *CLIRunner) RequestJSON(backend, method, resource string, opts ...string) (*CLIResult, error) {
	return r.Request(backend, method, resource, append(opts, "--json")...)
}

// Cookies runs a cookies subcommand against the harness cookie directory.
func (r *CLIRunner) Cookies(sub string, opts ...string) (*CLIResult, error) {
	args := []string{"cookies", sub, "--cookie-dir", r.harness.CookieDir()}
	args = append(args, opts...)
	return r.Run(args...)
}
