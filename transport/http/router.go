package http

import (
	"github.com/gin-gonic/gin"

	"github.com/rockfridrich/villa/bridge"
	"github.com/rockfridrich/villa/ports"
	"github.com/rockfridrich/villa/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(profiles *service.ProfileService, relay *service.RelayService, tokenizer ports.Tokenizer, authBridge *bridge.Bridge) *gin.Engine {
	router := gin.Default()

	// Create handlers
	handlers := NewHandlers(profiles, relay, authBridge)

	router.GET("/healthz", handlers.Health)
	router.GET("/nickname/:nickname/available", handlers.NicknameAvailable)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/signin", handlers.SignIn)
		auth.POST("/signout", handlers.SignOut)
		auth.GET("/identity", handlers.Identity)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(tokenizer))
	{
		api.GET("/profile", handlers.Profile)
		api.POST("/profile/nickname/reserve", handlers.ReserveNickname)
		api.POST("/profile/nickname/claim", handlers.ClaimNickname)
		api.PUT("/profile/avatar", handlers.SetAvatar)
		api.POST("/relay/sponsor", handlers.Sponsor)
	}

	return router
}
