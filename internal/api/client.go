// Package api is a client for the storefront backend REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "X-Request-ID"

var (
	// ErrUnauthorized is returned when the session cannot be (re)authenticated.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for missing or unshared resources.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the resource already exists, e.g. a repeated rating.
	ErrConflict = errors.New("conflict")
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrConflict:
		return e.Code == http.StatusConflict
	}
	return false
}

// TokenStore holds the session tokens. Implementations must be safe for
// concurrent use.
type TokenStore interface {
	Tokens() Tokens
	SetTokens(Tokens) error
	ClearTokens() error
}

// MemoryTokens is an in-process TokenStore.
type MemoryTokens struct {
	mu sync.Mutex
	t  Tokens
}

// NewMemoryTokens returns a store seeded with t.
func NewMemoryTokens(t Tokens) *MemoryTokens {
	return &MemoryTokens{t: t}
}

func (m *MemoryTokens) Tokens() Tokens {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

func (m *MemoryTokens) SetTokens(t Tokens) error {
	m.mu.Lock()
	m.t = t
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokens) ClearTokens() error {
	return m.SetTokens(Tokens{})
}

// Client talks to the backend. A Client is safe for concurrent use.
type Client struct {
	baseURL   string
	publicURL string
	hc        *http.Client
	tokens    TokenStore
	log       *zap.Logger
	refresh   singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

// WithTokens sets the token store. Without one, requests are anonymous.
func WithTokens(ts TokenStore) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPublicBucketURL sets the prefix used to build public URLs of uploaded objects.
func WithPublicBucketURL(u string) Option {
	return func(c *Client) { c.publicURL = strings.TrimRight(u, "/") }
}

// New creates a client for the API rooted at baseURL (e.g. http://host/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 15 * time.Second},
		tokens:  NewMemoryTokens(Tokens{}),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	out    any
}

// do sends r, refreshing the session once on 401 and retrying once.
func (c *Client) do(ctx context.Context, r request) error {
	var payload []byte
	if r.body != nil {
		var err error
		if payload, err = json.Marshal(r.body); err != nil {
			return fmt.Errorf("encoding %s %s: %w", r.method, r.path, err)
		}
	}

	access := c.tokens.Tokens().AccessToken
	err := c.send(ctx, r, payload, access)
	if !errors.Is(err, ErrUnauthorized) || c.tokens.Tokens().RefreshToken == "" {
		return err
	}

	if err := c.refreshSession(ctx, access); err != nil {
		return err
	}
	err = c.send(ctx, r, payload, c.tokens.Tokens().AccessToken)
	if errors.Is(err, ErrUnauthorized) {
		return fmt.Errorf("%s %s after refresh: %w", r.method, r.path, ErrUnauthorized)
	}
	return err
}

func (c *Client) send(ctx context.Context, r request, payload []byte, access string) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	req.Header.Set(RequestIDHeader, id)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("api call",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", id),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if r.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	se := &StatusError{Code: resp.StatusCode}
	var msg struct {
		Message any `json:"message"`
	}
	if json.Unmarshal(data, &msg) == nil && msg.Message != nil {
		switch m := msg.Message.(type) {
		case string:
			se.Message = m
		case []any:
			parts := make([]string, 0, len(m))
			for _, p := range m {
				parts = append(parts, fmt.Sprint(p))
			}
			se.Message = strings.Join(parts, "; ")
		default:
			se.Message = fmt.Sprint(m)
		}
	} else {
		se.Message = strings.TrimSpace(string(data))
	}
	return se
}

// refreshSession exchanges the refresh token for a new pair. Concurrent
// callers share one in-flight exchange. stale is the access token that was
// rejected; if the store already holds a different one, another caller has
// refreshed and nothing is sent.
func (c *Client) refreshSession(ctx context.Context, stale string) error {
	_, err, shared := c.refresh.Do("refresh", func() (any, error) {
		cur := c.tokens.Tokens()
		if cur.AccessToken != "" && cur.AccessToken != stale {
			return nil, nil
		}
		if cur.RefreshToken == "" {
			return nil, ErrUnauthorized
		}
		payload, err := json.Marshal(map[string]string{"refreshToken": cur.RefreshToken})
		if err != nil {
			return nil, err
		}
		var next Tokens
		// The exchange is shared, so one caller's cancellation must not fail the rest.
		err = c.send(context.WithoutCancel(ctx), request{
			method: http.MethodPost,
			path:   "/auth/refresh",
			out:    &next,
		}, payload, "")
		if err == nil && next.AccessToken == "" {
			err = errors.New("refresh response has no access token")
		}
		if err != nil {
			c.log.Warn("session refresh failed, signing out", zap.Error(err))
			if cerr := c.tokens.ClearTokens(); cerr != nil {
				c.log.Warn("clearing tokens", zap.Error(cerr))
			}
			return nil, fmt.Errorf("refreshing session: %w: %w", ErrUnauthorized, err)
		}
		if next.RefreshToken == "" {
			next.RefreshToken = cur.RefreshToken
		}
		if err := c.tokens.SetTokens(next); err != nil {
			return nil, fmt.Errorf("storing refreshed tokens: %w", err)
		}
		c.log.Debug("session refreshed")
		return nil, nil
	})
	if shared {
		c.log.Debug("joined in-flight session refresh")
	}
	return err
}
