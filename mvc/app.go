package mvc

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

var (
	validate     = validator.New(validator.WithRequiredStructEnabled())
	queryDecoder = schema.NewDecoder()
)

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// App serves controller actions on net/http routing patterns.
// Use Handler to obtain the http.Handler.
type App struct {
	mu                 sync.Mutex
	mux                *http.ServeMux
	patterns           []string
	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	middlewares        []func(http.Handler) http.Handler
	logger             *slog.Logger
	maxRequestBodySize int64
}

// NewApp returns an App with no routes and a 1MB request body limit.
func NewApp() *App {
	a := &App{
		mux:                http.NewServeMux(),
		logger:             slog.Default(),
		maxRequestBodySize: 1 << 20,
	}
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, Errorf(CodeNotFound, "no route for %s %s", r.Method, r.URL.Path), a.logger)
	})
	return a
}

// WithErrorTransformer sets a custom error transformer.
func (a *App) WithErrorTransformer(fn ErrorTransformer) *App {
	a.errorTransformer = fn
	return a
}

// WithMaskInternalErrors replaces the message of internal errors with a
// generic one. The original error is still logged.
func (a *App) WithMaskInternalErrors() *App {
	a.maskInternalErrors = true
	return a
}

// WithMiddleware wraps the app in mw. The first middleware added is the
// outermost.
func (a *App) WithMiddleware(mw func(http.Handler) http.Handler) *App {
	a.middlewares = append(a.middlewares, mw)
	return a
}

// WithLogger sets the logger. The default is slog.Default().
func (a *App) WithLogger(logger *slog.Logger) *App {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithMaxRequestBodySize sets the request body limit. Zero disables it.
func (a *App) WithMaxRequestBodySize(size int64) *App {
	a.maxRequestBodySize = size
	return a
}

// Handler returns the app as an http.Handler, wrapped in its middleware.
func (a *App) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(a.serveHTTP)
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}

// Patterns returns the registered routing patterns in registration order.
func (a *App) Patterns() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.patterns...)
}

func (a *App) serveHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("panic recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			writeError(w, Errorf(CodeInternal, "internal server error (panic): %v", rec), a.logger)
		}
	}()

	a.mux.ServeHTTP(w, r)
}

// Handle registers an action without a request body. route is relative to
// the app root and may contain net/http wildcards such as {id}.
func Handle[Res any](a *App, method, route string, fn func(*http.Request) (Res, error)) {
	a.register(method, route, func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r)
		a.respond(w, r, res, err)
	})
}

// HandleJSON registers an action whose request body is decoded as JSON into
// Req and validated before fn is called.
func HandleJSON[Req, Res any](a *App, method, route string, fn func(*http.Request, Req) (Res, error)) {
	a.register(method, route, func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := a.decode(w, r, &req); err != nil {
			a.fail(w, r, err)
			return
		}
		res, err := fn(r, req)
		a.respond(w, r, res, err)
	})
}

// HandleQuery registers an action whose query parameters are decoded into
// the struct Req (field names or `schema` tags) and validated before fn is
// called.
func HandleQuery[Req, Res any](a *App, method, route string, fn func(*http.Request, Req) (Res, error)) {
	a.register(method, route, func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := queryDecoder.Decode(&req, r.URL.Query()); err != nil {
			a.fail(w, r, Errorf(CodeInvalidArgument, "failed to decode query: %v", err))
			return
		}
		if err := validate.StructCtx(r.Context(), req); err != nil {
			a.fail(w, r, err)
			return
		}
		res, err := fn(r, req)
		a.respond(w, r, res, err)
	})
}

func (a *App) register(method, route string, h http.HandlerFunc) {
	pattern := method + " /" + strings.TrimPrefix(route, "/")

	a.mu.Lock()
	defer a.mu.Unlock()
	a.mux.HandleFunc(pattern, h)
	a.patterns = append(a.patterns, pattern)
	a.logger.Debug("route registered", slog.String("pattern", pattern))
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := r.Body
	if a.maxRequestBodySize > 0 {
		body = http.MaxBytesReader(w, body, a.maxRequestBodySize)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return NewError(CodeInvalidArgument, "request body is empty")
		}
		return Errorf(CodeInvalidArgument, "failed to decode body: %v", err)
	}

	rv := reflect.Indirect(reflect.ValueOf(v).Elem())
	if rv.Kind() == reflect.Struct {
		return validate.StructCtx(r.Context(), rv.Interface())
	}
	return nil
}

func (a *App) respond(w http.ResponseWriter, r *http.Request, res any, err error) {
	if err != nil {
		a.fail(w, r, err)
		return
	}

	status, body, hasBody := http.StatusOK, res, true
	switch v := res.(type) {
	case nil:
		status, hasBody = http.StatusNoContent, false
	case payloader:
		status, body = v.StatusCode(), v.payload()
	case Result:
		status, hasBody = v.StatusCode(), false
	}

	if !hasBody {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Error("failed to encode response",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
}

func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var e *Error
	if a.errorTransformer != nil {
		e = a.errorTransformer(err)
	}
	if e == nil {
		e = DefaultErrorTransformer(err)
	}
	if e.Code == CodeInternal {
		a.logger.Error("action failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		if a.maskInternalErrors {
			e = &Error{Code: CodeInternal, Message: "internal server error"}
		}
	}
	writeError(w, e, a.logger)
}

// PathInt parses the named path wildcard of r as an int.
func PathInt(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, Errorf(CodeInvalidArgument, "path parameter %s: %q is not an integer", name, raw).
			WithDetail(name, raw)
	}
	return n, nil
}

// PathString returns the named path wildcard of r, failing when it is empty.
func PathString(r *http.Request, name string) (string, error) {
	v := r.PathValue(name)
	if v == "" {
		return "", Errorf(CodeInvalidArgument, "path parameter %s is empty", name)
	}
	return v, nil
}
