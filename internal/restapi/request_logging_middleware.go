package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"zpgsa.live/internal/logging"
)

// responseWriter records what a handler sent, for the access log.
type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Flush keeps event streams working behind the logger.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) statusCode() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// NewRequestLoggingMiddleware logs one line per request once the handler returns. For the
// vehicle stream that is when the client disconnects, so duration_ms is the session length.
func NewRequestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	access := logging.Component(logger, "http_server")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r = r.WithContext(logging.WithLogger(r.Context(), logger))

			wrapped := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(wrapped, r)

			logging.LogHTTPRequest(access,
				r.Method,
				r.URL.Path,
				wrapped.statusCode(),
				float64(time.Since(start).Nanoseconds())/1e6,
				slog.Int("bytes", wrapped.bytes),
				slog.String("client", clientKey(r)),
				slog.String("user_agent", r.Header.Get("User-Agent")))
		})
	}
}
