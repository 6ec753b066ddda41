package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method      string
	path        string
	body        string
	contentType string
	header      http.Header
}

func echoServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var got []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, recorded{
			method:      r.Method,
			path:        r.URL.RequestURI(),
			body:        string(body),
			contentType: r.Header.Get("Content-Type"),
			header:      r.Header.Clone(),
		})
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestTransport_Verbs(t *testing.T) {
	srv, got := echoServer(t, http.StatusOK, "{}")
	tr, err := NewTransport(srv.URL + "/api")
	require.NoError(t, err)
	ctx := context.Background()

	calls := []func() (*http.Response, error){
		func() (*http.Response, error) { return tr.Get(ctx, "cups") },
		func() (*http.Response, error) { return tr.Put(ctx, "cups/1") },
		func() (*http.Response, error) { return tr.Post(ctx, "cups") },
		func() (*http.Response, error) { return tr.Delete(ctx, "cups/1") },
		func() (*http.Response, error) { return tr.GetJSON(ctx, "search", map[string]int{"q": 1}) },
		func() (*http.Response, error) { return tr.PutJSON(ctx, "cups/1", []int{1}) },
		func() (*http.Response, error) { return tr.PostJSON(ctx, "cups", "mug") },
		func() (*http.Response, error) { return tr.DeleteJSON(ctx, "cups", true) },
	}
	for _, call := range calls {
		require.NoError(t, Discard(call()))
	}

	want := []recorded{
		{method: "GET", path: "/api/cups"},
		{method: "PUT", path: "/api/cups/1"},
		{method: "POST", path: "/api/cups"},
		{method: "DELETE", path: "/api/cups/1"},
		{method: "GET", path: "/api/search", body: `{"q":1}`, contentType: "application/json"},
		{method: "PUT", path: "/api/cups/1", body: `[1]`, contentType: "application/json"},
		{method: "POST", path: "/api/cups", body: `"mug"`, contentType: "application/json"},
		{method: "DELETE", path: "/api/cups", body: `true`, contentType: "application/json"},
	}
	require.Len(t, *got, len(want))
	for i, w := range want {
		r := (*got)[i]
		assert.Equal(t, w.method, r.method, "call %d", i)
		assert.Equal(t, w.path, r.path, "call %d", i)
		assert.Equal(t, w.body, r.body, "call %d", i)
		assert.Equal(t, w.contentType, r.contentType, "call %d", i)
		assert.Equal(t, "application/json", r.header.Get("Accept"), "call %d", i)
	}
}

func TestTransport_Resolve(t *testing.T) {
	tests := []struct {
		base, route, want string
	}{
		{"http://h", "cups", "http://h/cups"},
		{"http://h/api", "cups/1", "http://h/api/cups/1"},
		{"http://h/api/", "cups/1", "http://h/api/cups/1"},
		{"http://h/api", "/root", "http://h/root"},
		{"http://h/api", "", "http://h/api/"},
		{"http://h/api", "cups?size=2", "http://h/api/cups?size=2"},
	}
	for _, tt := range tests {
		t.Run(tt.base+"+"+tt.route, func(t *testing.T) {
			tr, err := NewTransport(tt.base)
			require.NoError(t, err)
			u, err := tr.Resolve(tt.route)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestNewTransport_Errors(t *testing.T) {
	_, err := NewTransport("cups/1")
	assert.ErrorContains(t, err, "not absolute")

	_, err = NewTransport("http://h/%zz")
	assert.ErrorContains(t, err, "parse base URL")
}

func TestTransport_Options(t *testing.T) {
	srv, got := echoServer(t, http.StatusOK, "")
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tr, err := NewTransport(srv.URL,
		WithHTTPClient(srv.Client()),
		WithHeader("Authorization", "Bearer t"),
		WithRequestEditor(func(ctx context.Context, req *http.Request) error {
			req.Header.Set("X-Trace", "abc")
			return nil
		}),
		WithLogger(logger),
	)
	require.NoError(t, err)
	require.NoError(t, Discard(tr.Get(context.Background(), "ping")))

	require.Len(t, *got, 1)
	assert.Equal(t, "Bearer t", (*got)[0].header.Get("Authorization"))
	assert.Equal(t, "abc", (*got)[0].header.Get("X-Trace"))
	assert.Contains(t, buf.String(), "request sent")
	assert.Contains(t, buf.String(), "status=200")
}

func TestTransport_EditorError(t *testing.T) {
	tr, err := NewTransport("http://unused.test", WithRequestEditor(func(context.Context, *http.Request) error {
		return errors.New("no token")
	}))
	require.NoError(t, err)

	_, err = tr.Get(context.Background(), "x")
	assert.ErrorContains(t, err, "request editor: no token")
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func TestTransport_DoError(t *testing.T) {
	boom := errors.New("boom")
	tr, err := NewTransport("http://h", WithHTTPClient(doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})))
	require.NoError(t, err)

	_, err = ReadJSON[int](tr.Get(context.Background(), "cups"))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "GET http://h/cups")

	assert.ErrorIs(t, Discard(tr.Delete(context.Background(), "cups")), boom)
}

func TestTransport_MarshalError(t *testing.T) {
	tr, err := NewTransport("http://h")
	require.NoError(t, err)
	_, err = tr.PostJSON(context.Background(), "cups", make(chan int))
	assert.ErrorContains(t, err, "marshal request body")
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func response(status int, body string) (*http.Response, *closeTracker) {
	ct := &closeTracker{Reader: strings.NewReader(body)}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       ct,
	}, ct
}

func TestReadJSON(t *testing.T) {
	type cup struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	resp, body := response(http.StatusOK, `{"id":3,"name":"mug"}`)
	got, err := ReadJSON[cup](resp, nil)
	require.NoError(t, err)
	assert.Equal(t, cup{ID: 3, Name: "mug"}, got)
	assert.True(t, body.closed)

	// Status is not inspected.
	resp, _ = response(http.StatusNotFound, `{"id":0,"name":"missing"}`)
	got, err = ReadJSON[cup](resp, nil)
	require.NoError(t, err)
	assert.Equal(t, "missing", got.Name)

	resp, body = response(http.StatusOK, `not json`)
	_, err = ReadJSON[cup](resp, nil)
	var syntax *json.SyntaxError
	assert.ErrorAs(t, err, &syntax)
	assert.True(t, body.closed)
}

func TestDiscard(t *testing.T) {
	resp, body := response(http.StatusNoContent, "ignored")
	require.NoError(t, Discard(resp, nil))
	assert.True(t, body.closed)

	n, _ := body.Read(make([]byte, 1))
	assert.Zero(t, n)
}
