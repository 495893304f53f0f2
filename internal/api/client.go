// Package api is the client façade for the resume tailoring backend.
//
// One client per resource domain is grouped under Client. The façade performs no retries,
// caching or transformation: each call returns the parsed response body or an error the
// caller must handle.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client groups the per-resource clients behind one import surface.
type Client struct {
	Resumes      *ResumesClient
	Tailoring    *TailoringClient
	Interviews   *InterviewsClient
	StarStories  *StarStoriesClient
	CareerPaths  *ResourceClient
	Applications *ResourceClient
	CoverLetters *ResourceClient

	transport *transport
}

// Option customizes a Client.
type Option func(*transport)

// WithHTTPClient overrides the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *transport) {
		if hc != nil {
			t.http = hc
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(t *transport) {
		t.token = token
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(t *transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	t := &transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	return &Client{
		Resumes:      &ResumesClient{t: t},
		Tailoring:    &TailoringClient{t: t},
		Interviews:   &InterviewsClient{t: t},
		StarStories:  &StarStoriesClient{t: t},
		CareerPaths:  &ResourceClient{t: t, base: "/api/career-paths"},
		Applications: &ResourceClient{t: t, base: "/api/applications"},
		CoverLetters: &ResourceClient{t: t, base: "/api/cover-letters"},
		transport:    t,
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.transport.baseURL
}

type transport struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// envelope captures the success flag every backend response carries.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends a JSON request and decodes the response into out (if non-nil).
func (t *transport) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return t.send(ctx, method, path, query, body, contentType, out)
}

func (t *transport) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	target := t.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	start := time.Now()
	resp, err := t.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	t.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg, Body: raw}
	}

	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &APIError{Message: msg}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
