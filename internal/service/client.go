// Package service is the facade callers use to talk to a third-party web
// service. It resolves URLs, keeps the cookie partition of the service and
// dispatches calls to the configured transport backend.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/artpar/svcclient/internal/cookies"
	"github.com/artpar/svcclient/internal/cookies/file"
	"github.com/artpar/svcclient/internal/cookies/sqlite"
	svclog "github.com/artpar/svcclient/internal/log"
	"github.com/artpar/svcclient/internal/metrics"
	"github.com/artpar/svcclient/internal/transport"
)

// Call describes a single request.
type Call struct {
	Method   string
	Resource string
	// Params are sent as a form body for POST and as the query string
	// otherwise. With JSON set they always go to the query string.
	Params url.Values
	// JSON is marshalled into an application/json body.
	JSON any
	// Header overrides the default headers for this call.
	Header http.Header
	// Decode overrides the client's decode strategy for this call.
	Decode DecodeStrategy
}

// Result is a successful call.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the final URL after redirects.
	URL *url.URL
	// Value is the body decoded with the call's strategy.
	Value any
}

// Client calls a single web service. It is safe for concurrent use.
type Client struct {
	config    Config
	partition string
	logger    *slog.Logger
	metrics   *metrics.Collector
	fs        afero.Fs

	mu      sync.Mutex
	adapter transport.Adapter
	store   cookies.Store
	jar     *cookies.Jar
	closed  bool
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithAdapter sets the transport instead of building one from Config.Backend.
func WithAdapter(adapter transport.Adapter) Option {
	return func(c *Client) {
		c.adapter = adapter
	}
}

// WithStore sets the cookie store instead of building one from Config.Cookies.
func WithStore(store cookies.Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithFs sets the filesystem used by file-backed cookie storage.
func WithFs(fs afero.Fs) Option {
	return func(c *Client) {
		c.fs = fs
	}
}

// New creates a client. The transport and cookie store are built on first
// use.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %w", err)
	}

	c := &Client{
		config:    cfg,
		partition: cfg.Partition(),
		logger:    svclog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = svclog.WithComponent(c.logger, "service")

	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Partition returns the cookie partition the client reads and writes.
func (c *Client) Partition() string {
	return c.partition
}

// init builds the transport and the cookie jar once. A failure leaves the
// client uninitialized so the next call tries again.
func (c *Client) init() (transport.Adapter, *cookies.Jar, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, nil, ErrClosed
	}

	adapter := c.adapter
	if adapter == nil {
		a, err := transport.New(c.config.Backend, transport.Config{
			Domain:    c.config.Domain,
			UserAgent: c.config.UserAgent(),
			Proxy:     c.config.Proxy,
			Timeout:   c.config.Timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s transport: %w", c.config.Backend, err)
		}
		adapter = a
	}

	if c.jar == nil && c.config.Cookies.Mode != CookiesNone {
		store := c.store
		if store == nil {
			s, err := c.openStore()
			if err != nil {
				return nil, nil, err
			}
			store = s
		}
		c.store = store
		c.jar = cookies.NewJar(store)
	}

	c.adapter = adapter
	return c.adapter, c.jar, nil
}

func (c *Client) openStore() (cookies.Store, error) {
	switch c.config.Cookies.Mode {
	case CookiesInMemory:
		return cookies.NewMemoryStore(), nil
	case CookiesFile:
		opts := []file.Option{file.WithLogger(c.logger)}
		if c.fs != nil {
			opts = append(opts, file.WithFs(c.fs))
		}
		s, err := file.New(c.config.Cookies.Path, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open cookie directory: %w", err)
		}
		return s, nil
	case CookiesSQLite:
		s, err := sqlite.New(c.config.Cookies.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open cookie database: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown cookie mode %q", c.config.Cookies.Mode)
}

// URL resolves a resource against the service.
func (c *Client) URL(resource string) string {
	return c.config.Scheme + "://" + c.config.Domain + "/" + strings.TrimLeft(resource, "/")
}

// Request performs a call and returns the body decoded with the client's
// default strategy.
func (c *Client) Request(ctx context.Context, method, resource string, params url.Values) (any, error) {
	res, err := c.Do(ctx, &Call{Method: method, Resource: resource, Params: params})
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// RequestAs performs a call and decodes the JSON body into T.
func RequestAs[T any](ctx context.Context, c *Client, method, resource string, params url.Values) (T, error) {
	var v T
	res, err := c.Do(ctx, &Call{Method: method, Resource: resource, Params: params, Decode: DecodeRaw})
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(res.Body, &v); err != nil {
		return v, &DecodeError{Strategy: DecodeJSONObject, Cause: err}
	}
	return v, nil
}

// Do performs a call. A non-2xx response is returned as *transport.Error.
func (c *Client) Do(ctx context.Context, call *Call) (*Result, error) {
	adapter, jar, err := c.init()
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(call.Method)
	if method == "" {
		method = http.MethodGet
	}
	strategy := call.Decode
	if strategy == "" {
		strategy = c.config.Decode
	}

	req := &transport.Request{
		Method: method,
		URL:    c.URL(call.Resource),
		JSON:   call.JSON,
		Header: call.Header,
	}
	if method == http.MethodPost && call.JSON == nil {
		req.Form = call.Params
	} else if q := BuildQuery(call.Params); q != "" {
		sep := "?"
		if strings.Contains(req.URL, "?") {
			sep = "&"
		}
		req.URL += sep + q
	}

	if jar != nil {
		stored, err := jar.Cookies(ctx, c.partition)
		if err != nil {
			return nil, err
		}
		req.Cookies = stored
	}

	logger := svclog.WithService(c.logger, c.config.Domain, adapter.Name()).
		With(slog.String(svclog.RequestIDKey, uuid.NewString()))

	start := time.Now()
	resp, err := adapter.Send(ctx, req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		c.metrics.RecordRequest(adapter.Name(), 0)
		var terr *transport.Error
		if errors.As(err, &terr) {
			c.keepCookies(ctx, jar, terr.Cookies, logger)
		}
		logger.Error("service request failed",
			slog.String("method", method),
			slog.String("url", req.URL),
			slog.Int64(svclog.DurationKey, duration),
			svclog.Error(err),
		)
		return nil, err
	}
	c.metrics.RecordRequest(adapter.Name(), resp.StatusCode)

	c.keepCookies(ctx, jar, resp.Cookies, logger)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		terr := &transport.Error{StatusCode: resp.StatusCode, Body: resp.Body, URL: req.URL}
		logger.Error("service client error",
			slog.String("method", method),
			slog.String("url", req.URL),
			slog.Int(svclog.StatusKey, resp.StatusCode),
			slog.String("body", truncateBody(resp.Body)),
			slog.Int64(svclog.DurationKey, duration),
		)
		return nil, terr
	}

	logger.Debug("service request completed",
		slog.String("method", method),
		slog.String("url", req.URL),
		slog.Int(svclog.StatusKey, resp.StatusCode),
		slog.Int64(svclog.DurationKey, duration),
	)

	value, err := decode(resp.Body, strategy)
	if err != nil {
		return nil, err
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
		URL:        resp.URL,
		Value:      value,
	}, nil
}

// keepCookies validates harvested cookies and merges the valid ones into the
// partition. Rejected cookies and store failures are logged, never returned.
func (c *Client) keepCookies(ctx context.Context, jar *cookies.Jar, harvested []transport.Harvested, logger *slog.Logger) {
	if jar == nil || len(harvested) == 0 {
		return
	}

	valid := make([]*cookies.Cookie, 0, len(harvested))
	for _, h := range harvested {
		cookie, err := cookies.Validate(h.Fields, h.Setter)
		if err != nil {
			reason := cookies.Reason(err)
			c.metrics.RecordCookieRejected(reason)
			logger.Warn("dropping invalid cookie",
				slog.String(svclog.CookieKey, h.Fields[cookies.FieldName]),
				slog.String("reason", reason),
				svclog.Error(err),
			)
			continue
		}
		valid = append(valid, cookie)
	}
	if len(valid) == 0 {
		return
	}

	if _, err := jar.Update(ctx, c.partition, valid); err != nil {
		logger.Error("failed to store cookies", svclog.Error(err))
		return
	}
	c.metrics.RecordCookiesStored(len(valid))
}

// Cookies returns the stored cookies of the service.
func (c *Client) Cookies(ctx context.Context) ([]*cookies.Cookie, error) {
	_, jar, err := c.init()
	if err != nil || jar == nil {
		return nil, err
	}
	return jar.Cookies(ctx, c.partition)
}

// ClearCookies removes the stored cookies of the service.
func (c *Client) ClearCookies(ctx context.Context) error {
	_, jar, err := c.init()
	if err != nil || jar == nil {
		return err
	}
	return jar.Clear(ctx, c.partition)
}

// Close releases the cookie store. The client cannot be used afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

func truncateBody(b []byte) string {
	if len(b) == 0 {
		return "body:empty"
	}
	if len(b) > 512 {
		return string(b[:512]) + "..."
	}
	return string(b)
}
