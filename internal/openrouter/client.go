// Package openrouter provides a client for the OpenRouter aggregation API:
// model catalog, chat completions, and key/balance info.
package openrouter

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1"
	defaultTimeout     = 30 * time.Second
	defaultChatTimeout = 120 * time.Second
	maxBodySize        = 1 << 20 // 1 MB

	// localKeyPrefix marks keys for local proxy testing; attribution
	// headers are dropped for them.
	localKeyPrefix = "sk-or-v1-local"
)

var (
	// ErrNoAPIKey indicates no credential was configured.
	ErrNoAPIKey = errors.New("openrouter: no API key configured")
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("openrouter: unauthorized (API key rejected)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("openrouter: rate limited")
	// ErrEmptyResponse indicates a completion with zero choices.
	ErrEmptyResponse = errors.New("openrouter: no response choices returned")
	// ErrMalformedResponse indicates an unparseable payload.
	ErrMalformedResponse = errors.New("openrouter: malformed response")

	errNotFound = errors.New("openrouter: not found")
)

// Options configures a Client beyond the API key. Zero values fall back to
// defaults.
type Options struct {
	BaseURL            string
	SiteURL            string // HTTP-Referer attribution header
	AppTitle           string // X-Title attribution header
	ProxyURL           string
	InsecureSkipVerify bool
	Timeout            time.Duration // catalog and key calls
	ChatTimeout        time.Duration // chat completions
}

// Client talks to the OpenRouter HTTP API. One instance is safe for
// concurrent use.
type Client struct {
	apiKey      string
	baseURL     string
	siteURL     string
	appTitle    string
	timeout     time.Duration
	chatTimeout time.Duration
	http        *http.Client
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string, opts Options) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		siteURL:     opts.SiteURL,
		appTitle:    opts.AppTitle,
		timeout:     opts.Timeout,
		chatTimeout: opts.ChatTimeout,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.chatTimeout <= 0 {
		c.chatTimeout = defaultChatTimeout
	}
	if strings.HasPrefix(apiKey, localKeyPrefix) {
		c.siteURL = ""
		c.appTitle = ""
	}

	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("openrouter: parsing proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit user opt-in
	}
	c.http = &http.Client{Transport: transport}

	return c, nil
}

// get performs an authenticated GET with the short timeout.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, c.timeout)
}

// post performs an authenticated POST with the given timeout.
func (c *Client) post(ctx context.Context, path string, body []byte, timeout time.Duration) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body, timeout)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("openrouter: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.appTitle != "" {
		req.Header.Set("X-Title", c.appTitle)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusNotFound:
		return nil, errNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openrouter: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("openrouter: reading response: %w", err)
	}
	return data, nil
}

// Classify maps an error to a short kind label for display.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "auth"
	case errors.Is(err, ErrRateLimited):
		return "rate-limit"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrNoAPIKey):
		return "validation"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "network"
	}
}
