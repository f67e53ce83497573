// Package api is the gateway to the KotConnect REST backend.
//
// It resolves the base URL, attaches the bearer token and normalises every
// response into either a *Result or a *RequestError.
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
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds a single request when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Client issues requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the resolved backend URL, see ResolveBaseURL.
	BaseURL string
	// HTTPClient overrides the default client. Its Transport and Jar are used as is.
	HTTPClient *http.Client
	// Transport is used by the default client. Nil means http.DefaultTransport.
	Transport http.RoundTripper
	Timeout   time.Duration
	Logger    *slog.Logger
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		// The backend may set session cookies next to the bearer token.
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
			Jar:       jar,
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the backend URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestOptions struct {
	token   string
	body    any
	hasBody bool
	query   url.Values
}

// RequestOption customises a single request.
type RequestOption func(*requestOptions)

// WithToken attaches "Authorization: Bearer <token>". An empty token adds nothing.
func WithToken(token string) RequestOption {
	return func(o *requestOptions) {
		o.token = token
	}
}

// WithJSON sends body as a JSON payload.
func WithJSON(body any) RequestOption {
	return func(o *requestOptions) {
		o.body = body
		o.hasBody = true
	}
}

// WithQuery adds query parameters.
func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) {
		o.query = q
	}
}

// Request performs one HTTP call and normalises the response with HandleResponse.
func (c *Client) Request(ctx context.Context, method, path string, opts ...RequestOption) (*Result, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	target := c.baseURL + path
	if len(o.query) > 0 {
		target += "?" + o.query.Encode()
	}

	var body io.Reader
	if o.hasBody {
		payload, err := json.Marshal(o.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if o.hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	result, err := HandleResponse(resp)
	if err != nil {
		c.logger.Debug("Request failed", "method", method, "path", path, "error", err)
		return nil, err
	}
	return result, nil
}

// Get is Request with GET.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Result, error) {
	return c.Request(ctx, http.MethodGet, path, opts...)
}

// Post is Request with POST.
func (c *Client) Post(ctx context.Context, path string, opts ...RequestOption) (*Result, error) {
	return c.Request(ctx, http.MethodPost, path, opts...)
}

// Put is Request with PUT.
func (c *Client) Put(ctx context.Context, path string, opts ...RequestOption) (*Result, error) {
	return c.Request(ctx, http.MethodPut, path, opts...)
}

// Delete is Request with DELETE.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Result, error) {
	return c.Request(ctx, http.MethodDelete, path, opts...)
}
