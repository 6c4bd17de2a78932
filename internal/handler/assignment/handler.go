package assignment

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/handler"
	"github.com/strikeprep/staffing-api/internal/middleware"
	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/service/assignment"
)

type Handler struct {
	service *assignment.Service
}

func NewHandler(service *assignment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	assignments := r.Group("/assignments")
	{
		assignments.POST("", h.Create)
		assignments.GET("", h.List)
		assignments.GET("/:id", h.Get)
		assignments.POST("/:id/confirm", h.Confirm)
		assignments.POST("/:id/cancel", h.Cancel)
		assignments.POST("/:id/reassign", h.Reassign)
	}
}

func (h *Handler) Create(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing actor identity"))
		return
	}

	var req model.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.Create(c.Request.Context(), actorID, req.PositionID, req.ProviderID, req.Notes)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) Confirm(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing actor identity"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid assignment ID"))
		return
	}

	// Body is optional for confirm.
	var req model.ConfirmAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.Confirm(c.Request.Context(), actorID, id, req.Notes)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) Cancel(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing actor identity"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid assignment ID"))
		return
	}

	var req model.CancelAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), actorID, id, req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) Reassign(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing actor identity"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid assignment ID"))
		return
	}

	var req model.ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.Reassign(c.Request.Context(), actorID, id, req.ProviderID, req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid assignment ID"))
		return
	}

	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
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

	assignments, err := h.service.List(c.Request.Context(), scope)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(assignments))
}
