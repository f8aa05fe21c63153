package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the identity attached to authenticated requests. Tokens
// are issued by an external identity service; this API only validates them.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
