package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// TokenSource hands out the current session token; empty means anonymous.
type TokenSource interface {
	Token() string
}

// Client is the shared request/response pipeline every API module goes through.
// It attaches the bearer token, logs traffic and applies the 401 policy.
type Client struct {
	baseURL   string
	http      *http.Client
	log       logrus.FieldLogger
	userAgent string

	mu            sync.RWMutex
	tokens        TokenSource
	onAuthExpired func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

func WithLogger(l logrus.FieldLogger) Option { return func(c *Client) { c.log = l } }

func WithUserAgent(ua string) Option { return func(c *Client) { c.userAgent = ua } }

func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.tokens = ts } }

// WithAuthExpiredHandler sets the hook run when an identity endpoint answers 401.
func WithAuthExpiredHandler(fn func()) Option { return func(c *Client) { c.onAuthExpired = fn } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 10 * time.Second},
		log:       logrus.StandardLogger(),
		userAgent: "wishlist-cli",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource and SetAuthExpiredHandler exist because the session is built
// on top of the client and registers itself afterwards.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

func (c *Client) SetAuthExpiredHandler(fn func()) {
	c.mu.Lock()
	c.onAuthExpired = fn
	c.mu.Unlock()
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// isIdentityEndpoint matches the endpoints whose 401 means the session is gone.
func isIdentityEndpoint(path string) bool {
	return strings.Contains(path, "/auth/me") || strings.Contains(path, "/auth/user")
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	log := c.log.WithFields(logrus.Fields{
		"method":     method,
		"url":        path,
		"request_id": reqID,
	})

	if tok := c.token(); tok != "" {
		if strings.Count(tok, ".") != 2 {
			log.Warn("token does not look like a JWT (expected 3 parts)")
		}
		(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	log.Debugf("API %s request: %s", method, path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithField("status", "unknown").WithError(err).Errorf("API ERROR (unknown) in %s %s: no response received", method, path)
		return nil, &TransportError{Method: method, URL: path, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Error("read response body")
		return nil, &TransportError{Method: method, URL: path, Err: fmt.Errorf("read body: %w", err)}
	}
	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	})

	if resp.StatusCode < 400 {
		log.Infof("API %s response (%d) from: %s", method, resp.StatusCode, path)
		return b, nil
	}

	apiErr := newError(method, path, resp.StatusCode, b)
	log.Errorf("API ERROR (%d) in %s %s", resp.StatusCode, method, path)
	log.Debugf("response data: %s", b)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if isIdentityEndpoint(path) {
			log.Warn("authentication error, session expired")
			c.mu.RLock()
			hook := c.onAuthExpired
			c.mu.RUnlock()
			if hook != nil {
				hook()
			}
		} else {
			log.Info("unauthorized, keeping session")
		}
	case http.StatusForbidden:
		log.Info("forbidden, keeping session")
	}
	return nil, apiErr
}

// doJSON runs do and decodes a non-empty body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	b, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
