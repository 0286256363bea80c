// Package auth signs and verifies the attestation tokens returned by Check.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keygate-inc/keygate/internal/application/activation/usecases"
)

const attestationIssuer = "keygate"

// AttestationClaims is the JWT body of an attestation
type AttestationClaims struct {
	InstanceIdentifier string `json:"instance,omitempty"`
	Authorized         bool   `json:"authorized"`
	jwt.RegisteredClaims
}

// AttestationService issues HS256 attestations. Products holding the shared
// secret can verify a Check result offline until it expires.
type AttestationService struct {
	secret []byte
	ttl    time.Duration
}

// NewAttestationService creates the service. A non-positive ttl means one hour.
func NewAttestationService(secret string, ttl time.Duration) *AttestationService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AttestationService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

var _ usecases.AttestationSigner = (*AttestationService)(nil)

// Sign implements usecases.AttestationSigner
func (s *AttestationService) Sign(c usecases.AttestationClaims) (string, error) {
	claims := &AttestationClaims{
		InstanceIdentifier: c.InstanceIdentifier,
		Authorized:         c.Authorized,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    attestationIssuer,
			Subject:   c.LicenseKeyID,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			NotBefore: jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.IssuedAt.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign attestation: %w", err)
	}
	return signed, nil
}

// Verify parses an attestation and checks its signature and expiry
func (s *AttestationService) Verify(tokenString string, opts ...jwt.ParserOption) (*AttestationClaims, error) {
	opts = append(opts, jwt.WithIssuer(attestationIssuer))
	token, err := jwt.ParseWithClaims(tokenString, &AttestationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse attestation: %w", err)
	}

	if claims, ok := token.Claims.(*AttestationClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid attestation")
}
