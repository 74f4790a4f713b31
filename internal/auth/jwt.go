package auth

import (
	"fmt"
	"strings"
	"time"

	"house-hunter/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenTTL is fixed; tokens are not refreshable or revocable.
const AccessTokenTTL = 4 * time.Hour

type Manager struct {
	secret   []byte
	issuer   string
	audience string
	clock    func() time.Time
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, config.ErrMissingSecret
	}

	return &Manager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		clock:    time.Now,
	}, nil
}

// Now is the clock used by request guards.
func (m *Manager) Now() time.Time {
	return m.clock()
}

/* ===================== ISSUE ===================== */

// Issue signs id with an absolute expiry of now + AccessTokenTTL.
func (m *Manager) Issue(now time.Time, id Identity) (string, error) {
	id.Email = strings.TrimSpace(id.Email)
	if id.Email == "" {
		return "", ErrMissingEmail
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.Email,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
			ID:        uuid.NewString(),
		},
		Identity: id,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

/* ===================== VERIFY ===================== */

// Verify checks signature and expiry at now. Every failure wraps ErrForbidden.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrForbidden, err)
	}

	if claims.Email == "" {
		return Claims{}, fmt.Errorf("%w: email missing", ErrForbidden)
	}

	return claims, nil
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
