package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcpcp/mcpcp/pkg/auth"
	mcpcpcontext "github.com/mcpcp/mcpcp/pkg/context"
)

var (
	ErrMissingAuthorizationHeader = errors.New("missing required Authorization header")
	ErrBadAuthorizationHeader     = errors.New("Authorization header is badly formatted")
)

// TokenVerifier validates a bearer credential and returns the identity it
// asserts.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// ParseAuthorizationHeader extracts the bearer token from the request.
// Both "Bearer" and "bearer" are accepted.
func ParseAuthorizationHeader(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAuthorizationHeader
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		token := strings.TrimSpace(header[7:])
		if token != "" {
			return token, nil
		}
	}
	return "", ErrBadAuthorizationHeader
}

// RequireIdentity rejects any request that does not carry a valid bearer
// credential and stores the verified identity in the request context. There
// is no anonymous fallback: a missing or bad credential is always a 401.
func RequireIdentity(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ParseAuthorizationHeader(r)
			if err != nil {
				sendAuthChallenge(w)
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("credential verification failed",
					"request_id", mcpcpcontext.RequestID(r.Context()), "error", err)
				sendAuthChallenge(w)
				return
			}

			ctx := mcpcpcontext.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sendAuthChallenge answers 401 with a WWW-Authenticate header per RFC 6750.
func sendAuthChallenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="mcpcp"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
