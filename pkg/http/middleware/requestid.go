// Package middleware is the inbound HTTP middleware chain: request IDs,
// bearer credential verification, and early parsing of the MCP JSON-RPC
// body.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	mcpcpcontext "github.com/mcpcp/mcpcp/pkg/context"
)

// RequestIDHeader carries the correlation ID back to the caller.
const RequestIDHeader = "X-Request-Id"

// WithRequestID tags every request with a correlation ID and logs its
// completion.
func WithRequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			ctx := mcpcpcontext.WithRequestID(r.Context(), requestID)
			w.Header().Set(RequestIDHeader, requestID)

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))

			logger.Debug("request handled",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
			)
		})
	}
}
