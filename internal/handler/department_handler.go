package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/response"
)

// AnywhereDeptName labels the pseudo-department volunteers pick when they
// have no preference.
const AnywhereDeptName = "Anywhere"

type DepartmentLister interface {
	List(ctx context.Context) ([]models.Department, error)
	VolunteerOptions(ctx context.Context) ([]models.Department, error)
}

type DepartmentHandler struct {
	repo   DepartmentLister
	logger *zap.Logger
}

func NewDepartmentHandler(repo DepartmentLister, logger *zap.Logger) *DepartmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentHandler{repo: repo, logger: logger}
}

func (h *DepartmentHandler) Routes(r gin.IRoutes) {
	r.GET("", h.Index)
	r.GET("/volunteer", h.VolunteerOpts)
}

func (h *DepartmentHandler) Index(c *gin.Context) {
	depts, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, depts, nil)
}

// VolunteerOpts lists departments taking volunteers, with the "Anywhere"
// option first.
func (h *DepartmentHandler) VolunteerOpts(c *gin.Context) {
	depts, err := h.repo.VolunteerOptions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	opts := append([]models.Department{{Name: AnywhereDeptName, SolicitsVolunteers: true}}, depts...)
	response.JSON(c, http.StatusOK, opts, nil)
}
