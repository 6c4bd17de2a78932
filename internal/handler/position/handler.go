package position

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/handler"
	"github.com/strikeprep/staffing-api/internal/middleware"
	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/service/matching"
	"github.com/strikeprep/staffing-api/internal/service/position"
)

type Handler struct {
	positions *position.Service
	matcher   *matching.Service
}

func NewHandler(positions *position.Service, matcher *matching.Service) *Handler {
	return &Handler{
		positions: positions,
		matcher:   matcher,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	positions := r.Group("/positions")
	{
		positions.GET("", h.ListOpen)
		positions.GET("/coverage", h.Coverage)
		positions.GET("/:id", h.Get)
		positions.GET("/:id/matches", h.Matches)
	}
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid position ID"))
		return
	}

	pos, err := h.positions.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(pos))
}

func (h *Handler) ListOpen(c *gin.Context) {
	scope, ok := bindScope(c)
	if !ok {
		return
	}

	positions, err := h.positions.ListOpen(c.Request.Context(), scope)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(positions))
}

func (h *Handler) Coverage(c *gin.Context) {
	scope, ok := bindScope(c)
	if !ok {
		return
	}

	stats, err := h.positions.Coverage(c.Request.Context(), scope)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) Matches(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid position ID"))
		return
	}

	candidates, err := h.matcher.FindMatches(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(candidates))
}

// bindScope reads the hospital/department filter from the query string,
// falling back to the caller's home scope when none is given.
func bindScope(c *gin.Context) (model.ScopeFilter, bool) {
	var scope model.ScopeFilter
	if err := c.ShouldBindQuery(&scope); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid scope filter"))
		return scope, false
	}
	if scope.IsZero() {
		scope = middleware.ActorScope(c)
	}
	return scope, true
}
