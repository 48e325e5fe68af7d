package auth

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer mints bearer tokens for callers. The proxy itself never signs on
// the request path; this exists for the operator CLI and for tests.
type Signer struct {
	privateKey *rsa.PrivateKey
	issuer     string
	audience   string
}

func NewSigner(privateKeyPEM []byte, issuer, audience string) (*Signer, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return &Signer{privateKey: key, issuer: issuer, audience: audience}, nil
}

// Sign issues a token for subject with the given scopes, valid for ttl.
func (s *Signer) Sign(subject string, scopes []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing token for %q: %w", subject, err)
	}
	return signed, nil
}
