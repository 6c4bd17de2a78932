package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/handler"
	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/pkg/auth"
)

const (
	ContextActorID    = "actorID"
	ContextActorScope = "actorScope"
)

type AuthMiddleware struct {
	tokens *auth.TokenService
}

func NewAuthMiddleware(tokens *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and sets the actor identity
// and default scope in the request context. Handlers read them and
// pass the actor id explicitly into services.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextActorID, claims.ActorID)
		c.Set(ContextActorScope, model.ScopeFilter{
			HospitalID:   claims.HomeHospitalID,
			DepartmentID: claims.HomeDepartmentID,
		})
		c.Next()
	}
}

// ActorID returns the authenticated actor from the request context.
func ActorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextActorID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// ActorScope returns the caller's home scope for list defaults.
func ActorScope(c *gin.Context) model.ScopeFilter {
	v, ok := c.Get(ContextActorScope)
	if !ok {
		return model.ScopeFilter{}
	}
	scope, _ := v.(model.ScopeFilter)
	return scope
}
