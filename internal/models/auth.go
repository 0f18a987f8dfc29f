package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an admin.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and account info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Account     AdminInfo `json:"account"`
	IssuedAt    time.Time `json:"issued_at"`
}

// AdminInfo describes the authenticated admin in responses.
type AdminInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// JWTClaims represents the JWT payload for access tokens. Access carries the
// admin's access enum values so handlers can gate without a database hit.
type JWTClaims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Access    []int  `json:"access"`
	jwt.RegisteredClaims
}

// HasAccess reports whether the claims include the given access enum value.
func (c *JWTClaims) HasAccess(val int) bool {
	for _, a := range c.Access {
		if a == val {
			return true
		}
	}
	return false
}
