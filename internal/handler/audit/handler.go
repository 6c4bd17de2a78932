package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strikeprep/staffing-api/internal/handler"
	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/service/audit"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	audit := r.Group("/audit")
	{
		audit.GET("/logs", h.ListLogs)
	}
}

func (h *Handler) ListLogs(c *gin.Context) {
	var filters model.AuditFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid audit filters"))
		return
	}

	logs, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}
