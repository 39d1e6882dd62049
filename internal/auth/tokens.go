package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that are malformed, expired or signed with another key.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried by every bearer token. Sub is the user id; RegisteredClaims.ID is the jti.
type Claims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer using secret for signing and ttl as token lifetime.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports the lifetime applied to new tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a token for userID and returns it with its jti and expiry.
func (i *Issuer) Issue(userID string) (string, string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	jti := uuid.NewString()

	c := Claims{
		Sub: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, jti, expiresAt, nil
}

// Parse verifies token and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Sub == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
