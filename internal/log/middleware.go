package log

import (
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE handlers working behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware logs one line per request at debug level, and at warn level for
// server errors.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	httpLog := logger.WithComponent(ComponentHTTP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if rec.status >= http.StatusInternalServerError {
				httpLog.WarnContext(r.Context(), "request failed", args...)
				return
			}
			httpLog.Debug("request", args...)
		})
	}
}
