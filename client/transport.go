// Package client is the runtime used by generated API clients.
//
// A Transport sends requests to routes resolved against a base URL. Generated
// methods pass the result of a Transport call straight to ReadJSON (actions
// with a payload) or Discard (actions without one):
//
//	func (c *Cups) Get(ctx context.Context, id int) (Cup, error) {
//		return client.ReadJSON[Cup](c.transport.Get(ctx, fmt.Sprintf("cups/%v", id)))
//	}
//
// Neither inspects the response status; a non-2xx response decodes like any
// other.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// RequestEditor modifies a request before it is sent.
type RequestEditor func(ctx context.Context, req *http.Request) error

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient sets the Doer used to send requests. The default is
// http.DefaultClient.
func WithHTTPClient(d Doer) Option {
	return func(t *Transport) { t.doer = d }
}

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(t *Transport) { t.header.Set(key, value) }
}

// WithRequestEditor adds a function run on every request before it is sent.
func WithRequestEditor(fn RequestEditor) Option {
	return func(t *Transport) { t.editors = append(t.editors, fn) }
}

// WithLogger sets the logger used for per-request debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Transport sends requests for generated clients. It is safe for concurrent
// use once constructed.
type Transport struct {
	base    *url.URL
	doer    Doer
	header  http.Header
	editors []RequestEditor
	logger  *slog.Logger
}

// NewTransport returns a Transport resolving routes against baseURL.
// Relative routes resolve below the base path: with base
// "http://host/api", route "cups/1" is sent to "http://host/api/cups/1".
func NewTransport(baseURL string, opts ...Option) (*Transport, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL %q is not absolute", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	t := &Transport{
		base:   base,
		doer:   http.DefaultClient,
		header: make(http.Header),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// BaseURL returns the URL routes are resolved against.
func (t *Transport) BaseURL() string { return t.base.String() }

// Resolve returns the absolute URL for route.
func (t *Transport) Resolve(route string) (*url.URL, error) {
	ref, err := url.Parse(route)
	if err != nil {
		return nil, fmt.Errorf("parse route %q: %w", route, err)
	}
	return t.base.ResolveReference(ref), nil
}

// Send sends a request without a body.
func (t *Transport) Send(ctx context.Context, method, route string) (*http.Response, error) {
	return t.send(ctx, method, route, nil, "")
}

// SendJSON sends body encoded as JSON.
func (t *Transport) SendJSON(ctx context.Context, method, route string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return t.send(ctx, method, route, bytes.NewReader(data), "application/json")
}

func (t *Transport) send(ctx context.Context, method, route string, body io.Reader, contentType string) (*http.Response, error) {
	u, err := t.Resolve(route)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range t.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, edit := range t.editors {
		if err := edit(ctx, req); err != nil {
			return nil, fmt.Errorf("request editor: %w", err)
		}
	}

	start := time.Now()
	resp, err := t.doer.Do(req)
	if err != nil {
		t.logger.DebugContext(ctx, "request failed",
			slog.String("method", method),
			slog.String("url", u.String()),
			slog.Any("error", err))
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	t.logger.DebugContext(ctx, "request sent",
		slog.String("method", method),
		slog.String("url", u.String()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))
	return resp, nil
}

// Get sends a GET request.
func (t *Transport) Get(ctx context.Context, route string) (*http.Response, error) {
	return t.Send(ctx, http.MethodGet, route)
}

// Put sends a PUT request without a body.
func (t *Transport) Put(ctx context.Context, route string) (*http.Response, error) {
	return t.Send(ctx, http.MethodPut, route)
}

// Post sends a POST request without a body.
func (t *Transport) Post(ctx context.Context, route string) (*http.Response, error) {
	return t.Send(ctx, http.MethodPost, route)
}

// Delete sends a DELETE request.
func (t *Transport) Delete(ctx context.Context, route string) (*http.Response, error) {
	return t.Send(ctx, http.MethodDelete, route)
}

// GetJSON sends a GET request with a JSON body.
func (t *Transport) GetJSON(ctx context.Context, route string, body any) (*http.Response, error) {
	return t.SendJSON(ctx, http.MethodGet, route, body)
}

// PutJSON sends a PUT request with a JSON body.
func (t *Transport) PutJSON(ctx context.Context, route string, body any) (*http.Response, error) {
	return t.SendJSON(ctx, http.MethodPut, route, body)
}

// PostJSON sends a POST request with a JSON body.
func (t *Transport) PostJSON(ctx context.Context, route string, body any) (*http.Response, error) {
	return t.SendJSON(ctx, http.MethodPost, route, body)
}

// DeleteJSON sends a DELETE request with a JSON body.
func (t *Transport) DeleteJSON(ctx context.Context, route string, body any) (*http.Response, error) {
	return t.SendJSON(ctx, http.MethodDelete, route, body)
}
