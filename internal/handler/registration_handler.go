package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventide/conreg-api/internal/dto"
	"github.com/eventide/conreg-api/internal/eventconfig"
	"github.com/eventide/conreg-api/internal/middleware"
	"github.com/eventide/conreg-api/pkg/errors"
	"github.com/eventide/conreg-api/pkg/response"
)

type RegistrationInfoService interface {
	Info(ctx context.Context, snap *eventconfig.Snapshot) (*dto.RegistrationInfo, error)
}

type RegistrationHandler struct {
	svc    RegistrationInfoService
	logger *zap.Logger
}

func NewRegistrationHandler(svc RegistrationInfoService, logger *zap.Logger) *RegistrationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationHandler{svc: svc, logger: logger}
}

func (h *RegistrationHandler) Routes(r gin.IRoutes) {
	r.GET("/info", h.Info)
}

// Info reports current prices and availability. Everything in the response
// is read through the request's snapshot, so the numbers are mutually
// consistent even under concurrent sales.
func (h *RegistrationHandler) Info(c *gin.Context) {
	snap, ok := middleware.SnapshotFrom(c)
	if !ok {
		response.Error(c, errors.ErrInternal)
		return
	}

	info, err := h.svc.Info(c.Request.Context(), snap)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}
