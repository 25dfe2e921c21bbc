package models

import "github.com/golang-jwt/jwt/v5"

// AuthClaims are the access-token claims the API consumes. The subject is the
// profile id; email and role are optional provider claims.
type AuthClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c *AuthClaims) UserID() string {
	return c.Subject
}
