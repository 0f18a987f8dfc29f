package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/errors"
	"github.com/eventide/conreg-api/pkg/response"
)

type AuthenticationService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

type AuthHandler struct {
	svc    AuthenticationService
	logger *zap.Logger
}

func NewAuthHandler(svc AuthenticationService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

func (h *AuthHandler) Routes(r gin.IRoutes) {
	r.POST("/login", h.Login)
}

// Login exchanges admin credentials for an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.Clone(errors.ErrValidation, "invalid request body"))
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
