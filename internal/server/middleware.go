package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// scrubParams are query parameters whose values never belong in log output.
// The OAuth callback carries the authorization code and state token in its
// query string.
var scrubParams = []string{"code", "state", "token", "secret"}

// RequestLogger returns [Middleware] that logs each request with method,
// path, status, and duration. Sensitive query parameter values are redacted.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", scrubQuery(r.URL.RawQuery),
				"status", sw.status,
				"duration", time.Since(start),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// scrubQuery redacts sensitive query parameter values.
func scrubQuery(raw string) string {
	if raw == "" {
		return ""
	}

	parts := strings.Split(raw, "&")
	for i, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		lower := strings.ToLower(kv[0])
		for _, param := range scrubParams {
			if lower == param {
				parts[i] = kv[0] + "=REDACTED"
				break
			}
		}
	}

	return strings.Join(parts, "&")
}
