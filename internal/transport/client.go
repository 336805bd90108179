// Package transport issues authenticated REST calls and raw streaming
// fetches against the blog companion API. It retries exactly once on 401
// after asking the auth provider for a refresh.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"blog-ask-client/internal/dto"
	"blog-ask-client/internal/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxErrorBody = 1 << 20

// APIError is a non-2xx response with a parseable error envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	auth    AuthProvider
	logger  logger.ILogger
	tracer  trace.Tracer
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. The default carries
// no client-level timeout: REST deadlines come from the request context,
// and SSE bodies must be allowed to live for minutes.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, auth AuthProvider, log logger.ILogger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		auth:    auth,
		logger:  log,
		tracer:  otel.Tracer("blog-ask-client/transport"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DoJSON issues a request with a JSON body (may be nil) and decodes a
// 2xx JSON response into out (may be nil). A cancelled context never
// commits a decode into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.do(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}

	// Aborted fetches must not write results anywhere.
	if err := ctx.Err(); err != nil {
		return err
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Stream issues a request whose response body is handed to the caller for
// SSE consumption. The caller owns the body. Non-2xx responses are
// returned as-is: the ask layer distinguishes JSON error envelopes from
// event streams by content type.
func (c *Client) Stream(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	return c.do(ctx, method, path, body, "text/event-stream, application/json")
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, accept string) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("%s %s", method, path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer span.End()

	resp, err := c.send(ctx, method, path, payload, accept)
	if err == nil && resp.StatusCode == http.StatusUnauthorized && c.auth != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if refreshErr := c.auth.Refresh(ctx); refreshErr != nil {
			span.SetStatus(codes.Error, "token refresh failed")
			return nil, fmt.Errorf("refresh after 401: %w", refreshErr)
		}
		c.logger.Info("transport", "retrying after token refresh", map[string]interface{}{
			"method": method, "path": path,
		})
		resp, err = c.send(ctx, method, path, payload, accept)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, accept string) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Request-Id", uuid.NewString())

	if c.auth != nil {
		token, err := c.auth.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug("transport", "request completed", map[string]interface{}{
		"method": method, "path": path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope dto.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return &APIError{Status: resp.StatusCode, Message: envelope.Message}
	}
	return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
}
