package auth

import "github.com/golang-jwt/jwt/v5"

// Identity is the caller-visible payload embedded in an access token.
// It is deliberately closed: issuance accepts these fields only.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Photo string `json:"photo,omitempty"`
}

// Claims are the only supported JWT claims shape for this service.
// Once signed, a token's claims are never rewritten; they stay valid until ExpiresAt.
type Claims struct {
	jwt.RegisteredClaims
	Identity
}
