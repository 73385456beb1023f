package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/lyricsroman/idgen"
	"github.com/hazyhaar/lyricsroman/kit"
)

// RequestID assigns an ID to each request, stores it under
// kit.RequestIDKey, echoes it as X-Request-ID and attaches a per-request
// logger under LoggerKey. An incoming X-Request-ID is kept.
func RequestID(newID idgen.Generator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" || len(id) > 128 {
				id = newID()
			}
			w.Header().Set("X-Request-ID", id)

			l := logger.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			ctx := kit.WithRequestID(r.Context(), id)
			ctx = context.WithValue(ctx, LoggerKey, l)
			l.Debug("request")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
