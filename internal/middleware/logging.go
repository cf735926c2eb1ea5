package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// requestRecorder captures the status code and body size a handler writes.
type requestRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *requestRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *requestRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer, which the
// websocket upgrade on /auth/events needs to hijack the connection.
func (r *requestRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLogger returns middleware that logs one line per request with
// method, path, status, response size, duration, and remote IP.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &requestRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int("bytes", rec.bytes),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote", RealIP(r)),
			}
			logger.LogAttrs(r.Context(), requestLevel(r, rec.status), "request", attrs...)
		})
	}
}

// requestLevel maps a response to a log level. Unauthorized responses on the
// auth surface are routine here (expired access tokens, sessions revoked
// elsewhere, the stale-session signal clients key on), so they stay at info
// instead of polluting the warn stream.
func requestLevel(r *http.Request, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status == http.StatusUnauthorized && strings.HasPrefix(r.URL.Path, "/auth/"):
		return slog.LevelInfo
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
