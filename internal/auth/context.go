package auth

import (
	"context"
)

type ctxKey int

const (
	ctxClaims ctxKey = iota
)

// WithClaims binds verified claims to a request-scoped context.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, claims)
}

func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(Claims)
	return c, ok
}

// Email returns the verified caller email.
func Email(ctx context.Context) (string, error) {
	c, ok := ClaimsFrom(ctx)
	if !ok || c.Email == "" {
		return "", ErrNoIdentity
	}
	return c.Email, nil
}
