package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tradedesk/apperr"
)

// ErrUnauthorized is returned for missing, malformed, expired or otherwise
// unusable bearer tokens.
var ErrUnauthorized = apperr.New(apperr.KindUnauthorized, "unauthorized")

// TokenConfig carries everything needed to sign and verify access tokens.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// TokenIssuer issues and verifies HS256 access tokens whose subject is the user id.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds a TokenIssuer from cfg, falling back to a two hour
// lifetime and the wall clock when those are left unset.
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 120 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}
}

// TTL reports the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for userID.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse validates tokenString and returns its subject.
func (t *TokenIssuer) Parse(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", apperr.Wrap(apperr.KindUnauthorized, "unauthorized", err)
	}
	if claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}
