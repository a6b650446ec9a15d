package api

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/mariner3d/marinerctl/internal/alert"
)

const (
	clientIDHeader = "X-Client-ID"
	csrfHeader     = "X-CSRFToken"

	// DefaultTimeout bounds every request except uploads.
	DefaultTimeout = 30 * time.Second

	maxErrorBodySize = 1 << 20
)

// Notifier surfaces failures to the user. Open blocks until the user has
// acknowledged the alert.
type Notifier interface {
	Open(ctx context.Context, opts alert.Options) error
}

// headerInjector is an http.RoundTripper that adds the client ID and the
// CSRF token to every request.
type headerInjector struct {
	clientID string
	next     http.RoundTripper

	mu        sync.RWMutex
	csrfToken string
}

// RoundTrip clones the request, adds the headers and passes it on.
func (t *headerInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(clientIDHeader, t.clientID)

	t.mu.RLock()
	token := t.csrfToken
	t.mu.RUnlock()
	if token != "" {
		req.Header.Set(csrfHeader, token)
	}
	return t.next.RoundTrip(req)
}

func (t *headerInjector) setCSRFToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.csrfToken = token
}

// Client talks to the printer server's REST API.
type Client struct {
	HttpClient   *http.Client
	UploadClient *http.Client // No overall timeout; uploads can take minutes

	baseURL  *url.URL
	headers  *headerInjector
	notifier Notifier
}

// Option configures a Client.
type Option func(*Client)

// WithNotifier registers the alert channel failures are reported to.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithCSRFToken sets the CSRF token sent with every request.
func WithCSRFToken(token string) Option {
	return func(c *Client) { c.headers.setCSRFToken(token) }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HttpClient.Timeout = d
		}
	}
}

// WithTransport replaces the underlying transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.headers.next = rt }
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	headers := &headerInjector{
		clientID: uuid.New().String(),
		next:     http.DefaultTransport,
	}

	c := &Client{
		HttpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: headers,
			Jar:       jar,
		},
		UploadClient: &http.Client{
			Transport: headers,
			Jar:       jar,
		},
		baseURL: u,
		headers: headers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetNotifier registers the alert channel. It must be called before the
// client is shared between goroutines.
func (c *Client) SetNotifier(n Notifier) {
	c.notifier = n
}

// SetCSRFToken replaces the CSRF token sent with every request.
func (c *Client) SetCSRFToken(token string) {
	c.headers.setCSRFToken(token)
}

// BaseURL returns the server URL with a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ClientID returns the per-process identifier sent in X-Client-ID.
func (c *Client) ClientID() string {
	return c.headers.clientID
}

func (c *Client) endpoint(path string, params url.Values) string {
	ref := &url.URL{Path: path}
	if len(params) > 0 {
		ref.RawQuery = params.Encode()
	}
	return c.baseURL.ResolveReference(ref).String()
}

func (c *Client) newRequest(ctx context.Context, op, method, path string, params url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, params), body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and decodes a JSON body into out. Failures are returned as *Error.
func (c *Client) do(httpClient *http.Client, op string, req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return newResponseError(op, resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindContract, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, out any) error {
	req, err := c.newRequest(ctx, op, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	return c.do(c.HttpClient, op, req, out)
}

func (c *Client) post(ctx context.Context, op, path string, params url.Values) (*CommandResponse, error) {
	req, err := c.newRequest(ctx, op, http.MethodPost, path, params, nil)
	if err != nil {
		return nil, err
	}
	var resp CommandResponse
	if err := c.do(c.HttpClient, op, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// handleError reports err through the notifier when one is registered.
// Contract violations and cancelled requests are never reported.
func (c *Client) handleError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if c.notifier == nil || !errors.As(err, &apiErr) || apiErr.Kind == KindContract || ctx.Err() != nil {
		return err
	}

	slog.Warn("Reporting API failure", "op", apiErr.Op, "kind", apiErr.Kind.String(), "error", err)
	if nerr := c.notifier.Open(ctx, apiErr.AlertOptions()); nerr != nil {
		return errors.Join(err, nerr)
	}
	return fmt.Errorf("%w: %w", ErrReported, err)
}
