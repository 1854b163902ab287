package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"rofl/auth"
)

// SetupRouter wires the HTTP surface. Everything under /api except
// register/login requires a valid bearer token.
func SetupRouter(h *Handlers, tokens auth.TokenIssuer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	// Health check, easily test that the api is live.
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "i'm alive"})
	})

	router.POST("/api/register", h.Register)
	router.POST("/api/login", h.Login)

	authed := router.Group("/api", JWTAuthMiddleware(tokens))
	{
		authed.POST("/chats", h.CreateChat)
		authed.GET("/chats/:id", h.History)
		authed.POST("/chats/:id/join", h.Join)
		authed.POST("/chats/:id/leave", h.Leave)
		authed.POST("/chats/:id/messages", h.Post)
		authed.GET("/feed", h.Feed)
	}

	return router
}
