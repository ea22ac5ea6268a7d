// Package remote talks to the session server over plain HTTP: the active
// state poll endpoint and the legacy runner control endpoints.
package remote

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
	"time"

	"github.com/bhandras/termroom/internal/protocol/wire"
)

const (
	// defaultTimeout is the HTTP timeout used when the caller passes no client.
	defaultTimeout = 10 * time.Second
	// maxBody caps how much of a response body is read.
	maxBody = 64 << 10

	legacyStartPath = "/runner/start"
	legacyStopPath  = "/runner/stop"
)

// ErrUnexpectedStatus is wrapped by errors for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Config describes a Client.
type Config struct {
	// BaseURL is the server origin, for example https://host:5000.
	BaseURL string
	// Dialect selects the poll path family.
	Dialect wire.Dialect
	// Token, when set, is sent as a bearer token.
	Token string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	base    *url.URL
	dialect wire.Dialect
	token   string
	http    *http.Client
}

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("remote: base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("remote: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote: unsupported scheme %q", base.Scheme)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawPath = ""
	base.RawQuery, base.Fragment = "", ""

	dialect := cfg.Dialect
	if dialect.ActivePathPrefix == "" {
		dialect = wire.SessionDialect
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: base, dialect: dialect, token: cfg.Token, http: httpClient}, nil
}

// Active polls GET {prefix}/{id}/active. The endpoint answers with a JSON
// boolean; numbers and "true"/"false" strings are accepted too.
func (c *Client) Active(ctx context.Context, sessionID string) (bool, error) {
	body, err := c.get(ctx, c.dialect.ActivePath(sessionID))
	if err != nil {
		return false, err
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return false, fmt.Errorf("active response: %w", err)
	}
	if m, ok := v.(map[string]any); ok {
		for _, k := range []string{"active", "is_active"} {
			if raw, found := m[k]; found {
				v = raw
				break
			}
		}
	}
	active, err := wire.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("active response: %w", err)
	}
	return active, nil
}

// StartRunner calls the legacy start endpoint. The response body is ignored.
func (c *Client) StartRunner(ctx context.Context) error {
	_, err := c.get(ctx, legacyStartPath)
	return err
}

// StopRunner calls the legacy stop endpoint. The response body is ignored.
func (c *Client) StopRunner(ctx context.Context) error {
	_, err := c.get(ctx, legacyStopPath)
	return err
}

// URL appends an already escaped path to the base URL.
func (c *Client) URL(path string) string {
	return c.base.String() + path
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("request build failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("GET %s: %w %s: %s", path, ErrUnexpectedStatus, resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}
