// Package testutil provides helpers for testing mvc apps and the HTTP
// clients generated for them.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/broady/ctrlgen/mvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RequestBuilder constructs test requests with a fluent API.
type RequestBuilder struct {
	method  string
	path    string
	body    []byte
	headers http.Header
	query   url.Values
}

// NewRequest returns a builder for GET /.
func NewRequest() *RequestBuilder {
	return &RequestBuilder{
		method:  http.MethodGet,
		path:    "/",
		headers: make(http.Header),
		query:   make(url.Values),
	}
}

// GET sets the method to GET.
func (b *RequestBuilder) GET(path string) *RequestBuilder { return b.to(http.MethodGet, path) }

// PUT sets the method to PUT.
func (b *RequestBuilder) PUT(path string) *RequestBuilder { return b.to(http.MethodPut, path) }

// POST sets the method to POST.
func (b *RequestBuilder) POST(path string) *RequestBuilder { return b.to(http.MethodPost, path) }

// DELETE sets the method to DELETE.
func (b *RequestBuilder) DELETE(path string) *RequestBuilder {
	return b.to(http.MethodDelete, path)
}

func (b *RequestBuilder) to(method, path string) *RequestBuilder {
	b.method = method
	b.path = path
	return b
}

// WithJSON sets the body to the JSON encoding of v.
func (b *RequestBuilder) WithJSON(v any) *RequestBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	b.body = data
	b.headers.Set("Content-Type", "application/json")
	return b
}

// WithBody sets the raw body.
func (b *RequestBuilder) WithBody(body string) *RequestBuilder {
	b.body = []byte(body)
	return b
}

// WithHeader sets a request header.
func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.headers.Set(key, value)
	return b
}

// WithQuery adds a query parameter.
func (b *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	b.query.Add(key, value)
	return b
}

// Build returns the request and a fresh recorder.
func (b *RequestBuilder) Build() (*http.Request, *httptest.ResponseRecorder) {
	target := b.path
	if len(b.query) > 0 {
		target += "?" + b.query.Encode()
	}
	var body io.Reader
	if b.body != nil {
		body = bytes.NewReader(b.body)
	}
	req := httptest.NewRequest(b.method, target, body)
	for k, vs := range b.headers {
		req.Header[k] = vs
	}
	return req, httptest.NewRecorder()
}

// Serve builds the request, serves it with h and returns the recorder.
func (b *RequestBuilder) Serve(h http.Handler) *httptest.ResponseRecorder {
	req, w := b.Build()
	h.ServeHTTP(w, req)
	return w
}

// AssertStatus checks the response status code.
func AssertStatus(t testing.TB, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	assert.Equal(t, want, w.Code, "body: %s", w.Body.String())
}

// AssertJSONResponse checks that the body is JSON equivalent to want.
func AssertJSONResponse(t testing.TB, w *httptest.ResponseRecorder, want any) {
	t.Helper()
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	expected, err := json.Marshal(want)
	require.NoError(t, err)
	assert.JSONEq(t, string(expected), w.Body.String())
}

// AssertJSONError decodes the error envelope and checks its code.
func AssertJSONError(t testing.TB, w *httptest.ResponseRecorder, code mvc.ErrorCode) *mvc.Error {
	t.Helper()
	var e mvc.Error
	require.NoError(t, json.NewDecoder(w.Body).Decode(&e), "body: %s", w.Body.String())
	assert.Equal(t, code, e.Code, "message: %s", e.Message)
	return &e
}

// DecodeJSON decodes the response body into v.
func DecodeJSON(t testing.TB, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v), "body: %s", w.Body.String())
}
