package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eventide/conreg-api/internal/middleware"
	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/errors"
	"github.com/eventide/conreg-api/pkg/response"
)

// claimsFromContext fetches the authenticated claims, responding 401 when
// the middleware did not attach any.
func claimsFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		c.Abort()
		return nil, false
	}
	return claims, true
}
