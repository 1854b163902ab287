package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"rofl/auth"
)

func protectedRouter(tokens auth.TokenIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", JWTAuthMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userId")})
	})
	return router
}

func TestJWTAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	router := protectedRouter(tokens)

	t.Run("rejects a missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Token abc")
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts a valid bearer token", func(t *testing.T) {
		req := require.New(t)
		token, err := tokens.Generate("u1")
		req.NoError(err)

		rec := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		request.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(rec, request)

		req.Equal(http.StatusOK, rec.Code)
		req.Contains(rec.Body.String(), `"user_id":"u1"`)
	})
}
