package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mailpilot/mailpilot/internal/logging"
)

// DefaultTimeout is the fixed per-request timeout. There is no retry
// policy; callers surface failures to the user as-is.
const DefaultTimeout = 15 * time.Second

// CredentialSource provides the bearer credential attached to every
// outbound request. An empty token means the request goes out anonymous.
type CredentialSource interface {
	Token() string
}

// Recorder receives one observation per completed request. It is
// satisfied by instrumentation.Metrics; a separate interface keeps the
// transport layer free of a hard dependency on the metrics stack.
type Recorder interface {
	RecordRequest(ctx context.Context, method, path string, status int, duration time.Duration)
}

// Client is the single point of outbound communication with the backend.
// It attaches the stored bearer credential to every request and
// centralizes failure classification.
type Client struct {
	baseURL string
	httpc   *http.Client
	creds   CredentialSource
	logger  *slog.Logger

	recorder Recorder

	mu             sync.Mutex
	onUnauthorized []func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Used by tests to
// shorten the timeout.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRecorder sets the request metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// NewClient creates a client for the backend at baseURL. creds may be nil
// for a purely anonymous client.
func NewClient(baseURL string, creds CredentialSource, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid baseURL %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: DefaultTimeout},
		creds:   creds,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend base URL this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnUnauthorized registers fn to be called whenever the backend rejects
// the credential with a 401. The session store subscribes here so that
// credential teardown stays out of the transport layer.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

func (c *Client) notifyUnauthorized() {
	c.mu.Lock()
	subs := make([]func(), len(c.onUnauthorized))
	copy(subs, c.onUnauthorized)
	c.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// detailBody is the backend's structured error envelope.
type detailBody struct {
	Detail json.RawMessage `json:"detail"`
}

// Do performs a request against the backend and decodes the JSON response
// into out (which may be nil when the caller ignores the body). body is
// JSON-encoded when non-nil. All failures are returned as *Error.
func (c *Client) Do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Path: path, Kind: KindDecode, Err: fmt.Errorf("encode request body: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &Error{Op: op, Path: path, Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	duration := time.Since(start)

	if err != nil {
		kind := KindTransport
		if isTimeout(err) {
			kind = KindTimeout
		}
		c.record(ctx, method, path, 0, duration)
		c.logger.Debug("request failed",
			logging.Operation(op),
			slog.String("method", method),
			slog.String("path", path),
			logging.Err(err))
		return &Error{Op: op, Path: path, Kind: kind, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.record(ctx, method, path, resp.StatusCode, duration)
	c.logger.Debug("request completed",
		logging.Operation(op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("http_status", resp.StatusCode),
		slog.Duration(logging.KeyDuration, duration))

	if resp.StatusCode >= 400 {
		apiErr := &Error{
			Op:      op,
			Path:    path,
			Status:  resp.StatusCode,
			Kind:    kindForStatus(resp.StatusCode),
			Message: readDetail(resp.Body),
		}
		if apiErr.Kind == KindUnauthorized {
			c.notifyUnauthorized()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Path: path, Status: resp.StatusCode, Kind: KindDecode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Get is shorthand for Do with method GET and no request body.
func (c *Client) Get(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, op, http.MethodGet, path, query, nil, out)
}

// Post is shorthand for Do with method POST.
func (c *Client) Post(ctx context.Context, op, path string, body, out interface{}) error {
	return c.Do(ctx, op, http.MethodPost, path, nil, body, out)
}

// Put is shorthand for Do with method PUT.
func (c *Client) Put(ctx context.Context, op, path string, body, out interface{}) error {
	return c.Do(ctx, op, http.MethodPut, path, nil, body, out)
}

// Delete is shorthand for Do with method DELETE and no request body.
func (c *Client) Delete(ctx context.Context, op, path string, out interface{}) error {
	return c.Do(ctx, op, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) record(ctx context.Context, method, path string, status int, duration time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordRequest(ctx, method, path, status, duration)
	}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// isTimeout reports whether err is a deadline-style failure rather than
// an unreachable backend.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// readDetail extracts the backend's {"detail": ...} message, if present.
// The detail field is usually a string but validation errors may carry
// structured content; anything non-string is surfaced as raw JSON.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var envelope detailBody
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}
	return string(envelope.Detail)
}
