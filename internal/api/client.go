package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediacraft/internal/logging"
)

const (
	userAgent                 = "MediaCraft-CLI/0.1.0"
	defaultRequestTimeout     = 60 * time.Second
	defaultSessionInitTimeout = 5 * time.Second
)

// Config captures the runtime settings required to talk to the service.
type Config struct {
	BaseURL            string
	RequestTimeout     time.Duration
	SessionInitTimeout time.Duration
}

// Client wraps the MediaCraft REST API.
//
// Session state is explicit: the client tracks whether the server session
// has been bootstrapped and re-initializes it once when a task request
// comes back unauthorized, mirroring the behavior users expect from the
// web front-end. There is no package-level state.
type Client struct {
	cfg        Config
	base       *url.URL
	httpClient *http.Client
	// transferClient shares the cookie jar but carries no overall timeout;
	// uploads and downloads are bounded by the caller's context instead.
	transferClient *http.Client
	logger         *slog.Logger
	sessions       *SessionStore
	newRequestID   func() string

	mu           sync.Mutex
	sessionReady bool
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
			c.transferClient = client
		}
	}
}

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "api")
		}
	}
}

// WithSessionStore enables persisted sessions across invocations.
func WithSessionStore(store *SessionStore) Option {
	return func(c *Client) {
		c.sessions = store
	}
}

// WithRequestIDFunc overrides request ID generation (tests).
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newRequestID = fn
		}
	}
}

// NewClient constructs a MediaCraft API client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", cfg.BaseURL)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.SessionInitTimeout <= 0 {
		cfg.SessionInitTimeout = defaultSessionInitTimeout
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	client := &Client{
		cfg:            cfg,
		base:           base,
		httpClient:     &http.Client{Timeout: cfg.RequestTimeout, Jar: jar},
		transferClient: &http.Client{Jar: jar},
		logger:         logging.NewComponentLogger(nil, "api"),
		newRequestID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.sessions != nil {
		cookies, err := client.sessions.Load()
		if err != nil {
			client.logger.Warn("restore persisted session failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "session_restore_failed"),
			)
		} else if len(cookies) > 0 {
			restoreCookies(client.httpClient.Jar, base, cookies)
			client.mu.Lock()
			client.sessionReady = true
			client.mu.Unlock()
		}
	}

	return client, nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// DownloadURL returns the browser-sharable result URL for a task.
func (c *Client) DownloadURL(taskID string) string {
	return c.endpoint("/api/tasks/" + url.PathEscape(taskID) + "/download")
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// EnsureSession bootstraps the anonymous server session when none exists.
// Bootstrap failures are logged and swallowed; the server will still reject
// unauthorized task requests, which is surfaced at that call site.
func (c *Client) EnsureSession(ctx context.Context) {
	c.mu.Lock()
	if c.sessionReady {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	initCtx, cancel := context.WithTimeout(ctx, c.cfg.SessionInitTimeout)
	defer cancel()

	req, err := c.newRequest(initCtx, http.MethodGet, "/api/session/init", nil, "")
	if err != nil {
		c.logger.Warn("build session init request failed", logging.Error(err))
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("session init failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "session_init_failed"),
		)
		return
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("session init rejected",
			logging.Int("status", resp.StatusCode),
			logging.String(logging.FieldEventType, "session_init_failed"),
		)
		return
	}

	c.mu.Lock()
	c.sessionReady = true
	c.mu.Unlock()
	c.persistSession()
}

// resetSession drops the in-memory session flag so the next EnsureSession
// performs a fresh bootstrap.
func (c *Client) resetSession() {
	c.mu.Lock()
	c.sessionReady = false
	c.mu.Unlock()
}

func (c *Client) persistSession() {
	if c.sessions == nil || c.httpClient.Jar == nil {
		return
	}
	if err := c.sessions.Save(c.httpClient.Jar.Cookies(c.base)); err != nil {
		c.logger.Warn("persist session failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "session_persist_failed"),
		)
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", c.newRequestID())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// isTaskPath reports whether a path belongs to the task/file API surface,
// where an expired session is recoverable by re-initializing.
func isTaskPath(path string) bool {
	return strings.HasPrefix(path, "/api/tasks/") || strings.HasPrefix(path, "/api/files/")
}

// doJSON issues a JSON request and decodes the enveloped response into out.
// Task routes get the session bootstrap beforehand and a single retry after
// re-initialization when the server answers unauthorized. Auth routes never
// retry: a 401 there is a real answer.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	retriable := isTaskPath(path)
	if retriable {
		c.EnsureSession(ctx)
	}

	err := c.doJSONOnce(ctx, method, path, payload, out)
	if err == nil || !retriable || !IsUnauthorized(err) {
		return err
	}

	c.logger.Debug("session rejected; re-initializing once",
		logging.String("path", path),
		logging.String(logging.FieldEventType, "session_retry"),
	)
	c.resetSession()
	c.EnsureSession(ctx)
	return c.doJSONOnce(ctx, method, path, payload, out)
}

func (c *Client) doJSONOnce(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return decodeEnvelope(resp, out)
}
