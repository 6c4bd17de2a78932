package provider

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/handler"
	"github.com/strikeprep/staffing-api/internal/middleware"
	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/service/provider"
)

type Handler struct {
	service *provider.Service
}

func NewHandler(service *provider.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	providers := r.Group("/providers")
	{
		providers.GET("", h.List)
		providers.GET("/:id", h.Get)
		providers.POST("/:id/deactivate", h.Deactivate)
	}
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid provider ID"))
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) List(c *gin.Context) {
	var scope model.ScopeFilter
	if err := c.ShouldBindQuery(&scope); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid scope filter"))
		return
	}
	if scope.IsZero() {
		scope = middleware.ActorScope(c)
	}

	providers, err := h.service.List(c.Request.Context(), scope)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(providers))
}

func (h *Handler) Deactivate(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing actor identity"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid provider ID"))
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), actorID, id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
