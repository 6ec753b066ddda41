// Package middleware provides HTTP middleware for mvc apps.
package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists the origins allowed to make requests. "*" allows
	// all. Default: ["*"].
	AllowOrigins []string

	// AllowMethods defaults to the verbs generated clients use:
	// GET, PUT, POST, DELETE and OPTIONS.
	AllowMethods []string

	// AllowHeaders defaults to Content-Type and Authorization.
	AllowHeaders []string

	ExposeHeaders    []string
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits it.
	MaxAge int
}

// CORS returns an HTTP middleware that answers preflight requests and sets
// CORS headers. A nil cfg allows all origins.
func CORS(cfg *CORSConfig) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = &CORSConfig{}
	}
	origins := orDefault(cfg.AllowOrigins, "*")
	methods := strings.Join(orDefault(cfg.AllowMethods,
		http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions), ", ")
	headers := strings.Join(orDefault(cfg.AllowHeaders, "Content-Type", "Authorization"), ", ")
	exposed := strings.Join(cfg.ExposeHeaders, ", ")
	wildcard := slices.Contains(origins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			switch {
			case origin != "" && !wildcard && slices.Contains(origins, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			case wildcard && origin != "" && cfg.AllowCredentials:
				// A literal "*" cannot be combined with credentials.
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			case wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			}
			if cfg.AllowCredentials && h.Get("Access-Control-Allow-Origin") != "" {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if exposed != "" {
					h.Set("Access-Control-Expose-Headers", exposed)
				}
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func orDefault(v []string, def ...string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
