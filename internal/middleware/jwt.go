package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/errors"
	"github.com/eventide/conreg-api/pkg/response"
)

// ContextUserKey stores the authenticated claims on the gin context.
const ContextUserKey = "currentUser"

// TokenValidator verifies access tokens. Implemented by the auth service.
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// JWT requires a valid bearer token and stores its claims on the context.
func JWT(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c, auth)
		if err != nil {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalJWT stores claims when a valid token is present but lets
// anonymous requests through.
func OptionalJWT(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := bearerClaims(c, auth); err == nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, auth TokenValidator) (*models.JWTClaims, error) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, errors.ErrUnauthorized
	}
	return auth.ValidateToken(token)
}

// ClaimsFrom fetches the authenticated claims stored by JWT or OptionalJWT.
func ClaimsFrom(c *gin.Context) (*models.JWTClaims, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*models.JWTClaims)
	return claims, ok
}
