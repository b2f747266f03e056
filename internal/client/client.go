package client

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

	"go.uber.org/zap"

	"github.com/spec-kit/concierge-portal/internal/observability"
	apperrors "github.com/spec-kit/concierge-portal/pkg/util"
)

const defaultTimeout = 15 * time.Second

// TokenSource yields the current bearer token, if any.
type TokenSource interface {
	Get(ctx context.Context) (string, bool)
}

// Client issues authenticated calls to the portal backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// Options overrides client dependencies.
type Options struct {
	HTTPClient *http.Client
	// Timeout bounds each call. Zero selects the default, negative disables it.
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// New creates a client rooted at baseURL. Request paths are appended to any
// path baseURL already has.
func New(baseURL string, tokens TokenSource, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("baseURL is empty")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse baseURL: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	switch {
	case timeout == 0:
		timeout = defaultTimeout
	case timeout < 0:
		timeout = 0
	}
	return &Client{
		baseURL:    parsed,
		httpClient: httpClient,
		tokens:     tokens,
		timeout:    timeout,
		logger:     observability.OrNop(opts.Logger),
		metrics:    opts.Metrics,
	}, nil
}

// WithTokens returns a copy of c that reads bearer tokens from tokens.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

// Request performs method on path. A JSON body is sent only when body is non-nil.
// Non-2xx responses are consumed and returned as a DomainError carrying
// "<status>: <body text>"; on success the caller owns resp.Body.
func (c *Client) Request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	op := method + " " + path
	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, apperrors.NewValidationError("encode request body", map[string]any{"op": op, "error": err.Error()})
		}
		reader = buf
	}

	resp, cancel, err := c.do(ctx, method, path, reader)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(op, resp); err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// DoJSON performs Request and decodes a successful response into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Request(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewInvalidResponse(method+" "+path+": decode response", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, context.CancelFunc, error) {
	op := method + " " + path
	rel, err := url.Parse(path)
	if err != nil {
		return nil, nil, apperrors.NewValidationError("invalid request path", map[string]any{"path": path})
	}
	full := c.baseURL.JoinPath(rel.Path)
	full.RawQuery = rel.RawQuery

	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, method, full.String(), body)
	if err != nil {
		cancel()
		return nil, nil, apperrors.NewTransportError(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Get(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		c.metrics.RecordUpstream(path, method, 0)
		c.logger.Warn("backend request failed", zap.String("op", op), zap.Error(err))
		return nil, nil, apperrors.NewTransportError(op, err)
	}
	c.metrics.RecordUpstream(path, method, resp.StatusCode)
	return resp, cancel, nil
}

func (c *Client) checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError(op, err)
	}
	c.logger.Debug("backend returned failure status", zap.String("op", op), zap.Int("status", resp.StatusCode))
	return apperrors.NewHTTPError(resp.StatusCode, string(text))
}

// UnauthorizedBehavior selects how a query treats a 401 response.
type UnauthorizedBehavior int

const (
	// Throw fails the query with the 401 DomainError.
	Throw UnauthorizedBehavior = iota
	// ReturnNull resolves the query with no data.
	ReturnNull
)

// QueryOptions configures QueryFunc.
type QueryOptions struct {
	Key   []string
	On401 UnauthorizedBehavior
}

// QueryFunc builds a fetcher for the query cache. The URL is Key joined by "/".
// A nil result with a nil error means "no data".
func (c *Client) QueryFunc(opts QueryOptions) func(ctx context.Context) (json.RawMessage, error) {
	path := "/" + strings.TrimPrefix(strings.Join(opts.Key, "/"), "/")
	return func(ctx context.Context) (json.RawMessage, error) {
		op := http.MethodGet + " " + path
		resp, cancel, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		defer cancel()
		if resp.StatusCode == http.StatusUnauthorized && opts.On401 == ReturnNull {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, nil
		}
		if err := c.checkStatus(op, resp); err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperrors.NewTransportError(op, err)
		}
		if !json.Valid(data) {
			return nil, apperrors.NewInvalidResponse(op+": response is not JSON", nil)
		}
		return json.RawMessage(data), nil
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
