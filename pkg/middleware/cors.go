package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	AllowedOrigins []string // "*" allows any origin
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         int // preflight cache, seconds
}

// DefaultCORSOptions is what the storefront runs with: the usual verbs,
// bearer auth and request ids in both directions, and Retry-After so
// browsers can read rate limit hints.
func DefaultCORSOptions(origins []string) CORSOptions {
	return CORSOptions{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         600,
	}
}

// CORS answers preflights itself and decorates every other response from
// an allowed origin. Requests from other origins pass through untouched so
// the browser enforces the policy.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	anyOrigin := false
	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			anyOrigin = true
			continue
		}
		origins[o] = struct{}{}
	}

	preflight := http.Header{}
	preflight.Set("Access-Control-Allow-Methods", strings.Join(opts.AllowedMethods, ", "))
	preflight.Set("Access-Control-Allow-Headers", strings.Join(opts.AllowedHeaders, ", "))
	if opts.MaxAge > 0 {
		preflight.Set("Access-Control-Max-Age", strconv.Itoa(opts.MaxAge))
	}
	exposed := strings.Join(opts.ExposedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			isPreflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			h := w.Header()
			h.Add("Vary", "Origin")
			if origin != "" {
				_, listed := origins[origin]
				switch {
				case anyOrigin:
					h.Set("Access-Control-Allow-Origin", "*")
				case listed:
					h.Set("Access-Control-Allow-Origin", origin)
				default:
					origin = ""
				}
			}

			if isPreflight {
				if origin != "" {
					for k, v := range preflight {
						h[k] = v
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			if origin != "" && exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}
			next.ServeHTTP(w, r)
		})
	}
}
