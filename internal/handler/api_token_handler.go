package handler

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventide/conreg-api/internal/dto"
	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/errors"
	"github.com/eventide/conreg-api/pkg/response"
)

// TokenService is the behaviour the handler depends on.
type TokenService interface {
	List(ctx context.Context, claims *models.JWTClaims, showRevoked bool) ([]models.APIToken, error)
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateTokenRequest) (*dto.CreateTokenResponse, error)
	Revoke(ctx context.Context, claims *models.JWTClaims, id string) error
}

type APITokenHandler struct {
	svc       TokenService
	logger    *zap.Logger
	indexPath string
}

// NewAPITokenHandler builds the handler. indexPath is where the revoke flow
// redirects back to, e.g. "/api/v1/api-tokens".
func NewAPITokenHandler(svc TokenService, logger *zap.Logger, indexPath string) *APITokenHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APITokenHandler{svc: svc, logger: logger, indexPath: indexPath}
}

// Routes mounts the token endpoints on an authenticated group.
func (h *APITokenHandler) Routes(r gin.IRoutes) {
	r.GET("", h.Index)
	r.POST("", h.Create)
	r.POST("/revoke", h.RevokeWithoutID)
	r.POST("/:id/revoke", h.Revoke)
	r.GET("/:id/revoke", h.RevokeWrongVerb)
}

// Index lists the caller's tokens. show_revoked=true includes revoked ones.
func (h *APITokenHandler) Index(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	showRevoked, _ := strconv.ParseBool(c.Query("show_revoked"))

	tokens, err := h.svc.List(c.Request.Context(), claims, showRevoked)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, tokens, nil)
}

// Create issues a new token. Validation problems come back as an error
// message without anything being persisted.
func (h *APITokenHandler) Create(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.Clone(errors.ErrValidation, "invalid request body"))
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Revoke stamps the token and redirects back to the index with a message.
// Unknown and already revoked tokens redirect silently; the index simply
// no longer lists them.
func (h *APITokenHandler) Revoke(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		response.Redirect(c, h.indexPath)
		return
	}

	err := h.svc.Revoke(c.Request.Context(), claims, id)
	if err != nil {
		appErr := errors.FromError(err)
		switch appErr.Code {
		case errors.ErrNotFound.Code, errors.ErrConflict.Code:
			response.Redirect(c, h.indexPath)
		default:
			response.Error(c, err)
		}
		return
	}
	response.Redirect(c, h.indexPath+"?message="+url.QueryEscape("Token revoked"))
}

// RevokeWithoutID covers the form posting with no token selected.
func (h *APITokenHandler) RevokeWithoutID(c *gin.Context) {
	response.Redirect(c, h.indexPath)
}

// RevokeWrongVerb covers GETs against the revoke endpoint; revocation only
// happens on POST.
func (h *APITokenHandler) RevokeWrongVerb(c *gin.Context) {
	response.Redirect(c, h.indexPath)
}
