package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eventide/conreg-api/pkg/errors"
	"github.com/eventide/conreg-api/pkg/response"
)

// RequireAccess lets the request through when the authenticated account
// holds any of the given access section values. Must run after JWT.
func RequireAccess(sections ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, section := range sections {
			if claims.HasAccess(section) {
				c.Next()
				return
			}
		}
		response.Error(c, errors.ErrForbidden)
		c.Abort()
	}
}
