package auth

import (
	"time"
)

// AccessClaims is the payload of a v4.local access token. The token is
// encrypted, so nothing here is readable without the server key.
type AccessClaims struct {
	// Application claims.
	UserID string `json:"user_id"`
	Email  string `json:"email"`

	// Registered PASETO claims.
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
