// Package auth verifies the signed bearer credentials callers present to the
// proxy and mints them for operators and tests. Tokens are RS256 JWTs
// checked against a single public key, a fixed issuer, and a fixed audience.
package auth

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/muesli/cache2go"
)

// ErrUnauthenticated covers every credential failure: missing, malformed,
// expired, wrong signature, wrong issuer or audience. Callers must treat it
// as a rejection, never as an anonymous identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the verified subject of a credential plus the scopes the token
// carried. It lives for one request.
type Identity struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether the token carried the given scope.
func (id Identity) HasScope(scope string) bool {
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type tokenClaims struct {
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens. Verified tokens are cached by digest
// until shortly before expiry so repeated requests from the same caller skip
// the signature check.
type Verifier struct {
	publicKey *rsa.PublicKey
	issuer    string
	audience  string
	parser    *jwt.Parser
	cache     *cache2go.CacheTable
	cacheTTL  time.Duration
}

const defaultVerifyCacheTTL = 5 * time.Minute

// NewVerifier builds a verifier for RS256 tokens signed by the key behind
// publicKeyPEM, issued by issuer for audience.
func NewVerifier(publicKeyPEM []byte, issuer, audience string) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	return &Verifier{
		publicKey: key,
		issuer:    issuer,
		audience:  audience,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
		),
		// Table per verifier: a token rejected under one key/issuer/audience
		// configuration must never be served from another verifier's cache.
		cache:    cache2go.Cache("mcpcp-verified-tokens-" + uuid.NewString()),
		cacheTTL: defaultVerifyCacheTTL,
	}, nil
}

// Verify checks the token and returns the identity it asserts.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, fmt.Errorf("%w: empty credential", ErrUnauthenticated)
	}

	digest := tokenDigest(tokenString)
	if item, err := v.cache.Value(digest); err == nil {
		if id, ok := item.Data().(Identity); ok {
			return id, nil
		}
	}

	claims := &tokenClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.publicKey, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	id := Identity{
		Subject: claims.Subject,
		Scopes:  claims.Scopes,
	}

	ttl := v.cacheTTL
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		v.cache.Add(digest, ttl, id)
	}

	return id, nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
