// Package api is the transport layer for the remote project-management
// GraphQL endpoint. One HTTP POST per operation, bearer auth when a token
// is stored, transient failures retried with jittered backoff.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// TokenSource provides the bearer token attached to requests. A 401
// response clears it.
type TokenSource interface {
	Token() string
	Clear() error
}

// Operation is one query or mutation. Each concrete operation type carries
// its required fields as plain values and its optional fields as pointers,
// so the variable bag is structurally checked at the call site.
type Operation interface {
	OperationName() string
	Document() string
	Variables() map[string]any
}

// Response carries the raw response data together with any structured
// errors the server attached. Both may be present at once; callers can
// render partial data while reporting the errors.
type Response struct {
	Data   json.RawMessage
	Errors GraphQLErrorList
}

// Err returns the server errors as an error value, or nil when the
// response was clean.
func (r *Response) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	return r.Errors
}

// Client issues GraphQL operations against a single HTTP endpoint.
type Client struct {
	httpClient     *http.Client
	endpoint       string
	tokens         TokenSource
	retry          RetryConfig
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry overrides the retry schedule.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithUnauthorizedHook installs the callback invoked after a 401 has
// cleared the stored token. This is the login-boundary navigation stub.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// NewClient creates a client for the given endpoint.
func NewClient(endpoint string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		endpoint:   endpoint,
		tokens:     tokens,
		retry:      RetryConfig{MaxAttempts: defaultMaxAttempts, InitialDelay: defaultInitialDelay},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the GraphQL request body.
type envelope struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Do executes one operation. Transport failures are retried per the retry
// policy; application errors come back inside the Response and are never
// retried. When out is non-nil the response data is decoded into it, even
// when errors are present alongside partial data.
func (c *Client) Do(ctx context.Context, op Operation, out any) (*Response, error) {
	body, err := json.Marshal(envelope{
		Query:         op.Document(),
		OperationName: op.OperationName(),
		Variables:     op.Variables(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var resp *Response
	err = retryWithBackoff(c.retry, func() error {
		var attemptErr error
		resp, attemptErr = c.attempt(ctx, body)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 {
		log.Warnf("[API] %s returned %d error(s): %s", op.OperationName(), len(resp.Errors), resp.Errors.Error())
	}

	if out != nil {
		data := resp.Data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		if err := json.Unmarshal(data, out); err != nil {
			return resp, fmt.Errorf("decode response data: %w", err)
		}
	}
	return resp, nil
}

// attempt performs a single HTTP exchange.
func (c *Client) attempt(ctx context.Context, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}

	if httpResp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
		return nil, ErrUnauthorized
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Err: fmt.Errorf("status %d: %s", httpResp.StatusCode, string(respBody))}
	}

	var wrapper struct {
		Data   json.RawMessage  `json:"data"`
		Errors GraphQLErrorList `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &wrapper); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("decode envelope: %w", err)}
	}

	return &Response{Data: wrapper.Data, Errors: wrapper.Errors}, nil
}

// handleUnauthorized clears the stored token and hands control to the
// login boundary.
func (c *Client) handleUnauthorized() {
	log.Warnf("[API] 401 from server, clearing stored token")
	if c.tokens != nil {
		if err := c.tokens.Clear(); err != nil {
			log.Errorf("[API] failed to clear token: %v", err)
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}
