package admin

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the admin-only routes on a group that already enforces admin access.
func SetupRoutes(adminOnly *gin.RouterGroup, handler *Handler) {
	adminGroup := adminOnly.Group("/admin")
	{
		credentialsGroup := adminGroup.Group("/api-keys")
		{
			credentialsGroup.GET("", handler.ListCredentialsHandler)
			credentialsGroup.POST("", handler.CreateCredentialHandler)
			credentialsGroup.PUT("/:id", handler.UpdateCredentialHandler)
			credentialsGroup.DELETE("/:id", handler.DeleteCredentialHandler)
			credentialsGroup.POST("/:id/test", handler.TestCredentialHandler)
		}
		adminGroup.POST("/usage/reset", handler.ResetUsageHandler)
		adminGroup.GET("/stats", handler.StatsHandler)
	}

	feedsGroup := adminOnly.Group("/feeds")
	{
		feedsGroup.POST("", handler.CreateFeedHandler)
		feedsGroup.POST("/initialize", handler.InitializeFeedsHandler)
		feedsGroup.DELETE("/:id", handler.DeleteFeedHandler)
	}

	adminOnly.POST("/articles/collect", handler.CollectArticlesHandler)
}
