package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventide/conreg-api/internal/dto"
	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/errors"
	"github.com/eventide/conreg-api/pkg/response"
)

type ReportRunner interface {
	Enqueue(ctx context.Context, claims *models.JWTClaims, req dto.CreateReportRequest) (*dto.ReportResponse, error)
	Get(ctx context.Context, id string) (*dto.ReportResponse, error)
	ResolveDownload(token string) (string, error)
}

type ReportHandler struct {
	svc    ReportRunner
	logger *zap.Logger
}

func NewReportHandler(svc ReportRunner, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

func (h *ReportHandler) Routes(r gin.IRoutes) {
	r.POST("", h.Create)
	r.GET("/:id", h.Get)
}

// DownloadRoute mounts the signed download endpoint; it authenticates by
// token, not by session, so it lives outside the JWT group.
func (h *ReportHandler) DownloadRoute(r gin.IRoutes) {
	r.GET("/download", h.Download)
}

func (h *ReportHandler) Create(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.Clone(errors.ErrValidation, "invalid request body"))
		return
	}

	resp, err := h.svc.Enqueue(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, resp, nil)
}

func (h *ReportHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, errors.Clone(errors.ErrForbidden, "missing download token"))
		return
	}
	path, err := h.svc.ResolveDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(path)
}
