package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikeprep/staffing-api/pkg/auth"
)

func TestAuthenticateSetsActorAndScope(t *testing.T) {
	tokens := auth.NewTokenService("test-secret-at-least-32-bytes-long", time.Hour)
	claims := &auth.Claims{
		ActorID:          uuid.New(),
		HomeHospitalID:   uuid.New(),
		HomeDepartmentID: uuid.New(),
	}
	token, err := tokens.Generate(claims)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewAuthMiddleware(tokens).Authenticate())
	r.GET("/probe", func(c *gin.Context) {
		actorID, ok := ActorID(c)
		require.True(t, ok)
		assert.Equal(t, claims.ActorID, actorID)

		scope := ActorScope(c)
		assert.Equal(t, claims.HomeHospitalID, scope.HospitalID)
		assert.Equal(t, claims.HomeDepartmentID, scope.DepartmentID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	tokens := auth.NewTokenService("test-secret-at-least-32-bytes-long", time.Hour)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewAuthMiddleware(tokens).Authenticate())
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	tokens := auth.NewTokenService("test-secret-at-least-32-bytes-long", time.Hour)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewAuthMiddleware(tokens).Authenticate())
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Basic something")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret-at-least-32-bytes-long", time.Hour)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewAuthMiddleware(tokens).Authenticate())
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
