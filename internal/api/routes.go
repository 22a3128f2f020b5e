package api

import (
	"techpulse/internal/admin"
	"techpulse/internal/auth"
	"techpulse/internal/db"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers every /api route: public, authenticated and admin-only.
func SetupRoutes(router *gin.Engine, handler *Handler, adminHandler *admin.Handler, tokens *auth.TokenManager, users db.Service) {
	requireUser := auth.RequireUser(tokens, users)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/", handler.RootHandler)
		apiGroup.GET("/health", handler.HealthHandler)

		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", handler.RegisterHandler)
			authGroup.POST("/login", handler.LoginHandler)
			authGroup.POST("/create-admin", handler.CreateAdminHandler)
			authGroup.GET("/me", requireUser, handler.MeHandler)
		}

		apiGroup.GET("/feeds", handler.ListFeedsHandler)
		apiGroup.GET("/articles", handler.ListArticlesHandler)
		apiGroup.GET("/content", handler.ListContentHandler)
		apiGroup.GET("/content/:id", handler.GetContentHandler)
		apiGroup.GET("/search", handler.SearchHandler)
		apiGroup.GET("/analytics", handler.AnalyticsHandler)

		userGroup := apiGroup.Group("", requireUser)
		{
			userGroup.POST("/generate", handler.GenerateHandler)
			userGroup.POST("/publish", handler.PublishHandler)
		}

		admin.SetupRoutes(apiGroup.Group("", requireUser, auth.RequireAdmin()), adminHandler)
	}
}
