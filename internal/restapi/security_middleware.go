package restapi

import (
	"net/http"
	"strings"

	"zpgsa.live/internal/appconf"
)

const (
	apiContentPolicy = "default-src 'none'; frame-ancestors 'none';"
	// The debug pages carry their own inline stylesheet.
	debugContentPolicy = "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none';"
)

// WithSecurityHeaders wraps the given handler with security headers middleware
func (api *RestAPI) WithSecurityHeaders(handler http.Handler) http.Handler {
	return securityHeaders(api.Config.Env, handler)
}

// securityHeaders sets the browser hardening headers and answers CORS preflights. The map
// front end lives on its own origin and reads both the JSON endpoints and the event stream.
func securityHeaders(env appconf.Environment, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if env == appconf.Production {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		if strings.HasPrefix(r.URL.Path, "/debug") {
			h.Set("Content-Security-Policy", debugContentPolicy)
		} else {
			h.Set("Content-Security-Policy", apiContentPolicy)
		}

		if r.Header.Get("Origin") != "" {
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")
			h.Set("Access-Control-Expose-Headers", "Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining")
			h.Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
