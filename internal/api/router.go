package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blogforge/distributor/internal/logger"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handlers, registry *prometheus.Registry, corsOrigins []string, debug bool, log logger.Logger) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(corsMiddleware(corsOrigins))

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		sites := api.Group("/sites")
		{
			sites.POST("", h.CreateSite)
			sites.GET("", h.ListSites)
			sites.GET("/:id", h.GetSite)
			sites.PUT("/:id", h.UpdateSite)
			sites.DELETE("/:id", h.DeleteSite)
			sites.GET("/:id/tables", h.ListCandidateTables)
			sites.POST("/:id/tables/rescan", h.RescanTables)
			sites.PUT("/:id/table", h.AdoptTable)
			sites.GET("/:id/stats", h.SiteStats)

			posts := sites.Group("/:id/posts")
			{
				posts.GET("/recent", h.RecentPosts)
				posts.GET("/scheduled", h.ListScheduledPosts)
				posts.POST("/bulk", h.BulkPostAction)
				posts.GET("/:postID", h.GetPost)
				posts.PUT("/:postID", h.UpdatePost)
				posts.DELETE("/:postID", h.DeletePost)
				posts.POST("/:postID/edit", h.OpenPostForEdit)
				posts.POST("/:postID/status", h.SetPostStatus)
				posts.POST("/:postID/schedule", h.SchedulePost)
				posts.POST("/:postID/unschedule", h.UnschedulePost)
			}
		}

		campaigns := api.Group("/campaigns")
		{
			campaigns.POST("", h.CreateCampaign)
			campaigns.GET("/:id", h.GetCampaign)
			campaigns.DELETE("/:id", h.DeleteCampaign)
			campaigns.PUT("/:id/spec", h.UpdateCampaignSpec)
			campaigns.POST("/:id/advance", h.AdvanceCampaign)
			campaigns.POST("/:id/jump", h.JumpCampaign)
			campaigns.POST("/:id/regenerate", h.RegenerateCampaign)
			campaigns.PATCH("/:id/content", h.EditCampaignContent)
		}

		api.POST("/uploads", h.UploadImages)

		categories := api.Group("/categories")
		{
			categories.POST("", h.CreateCategory)
			categories.GET("", h.ListCategories)
			categories.GET("/:id", h.GetCategory)
			categories.PUT("/:id", h.UpdateCategory)
			categories.DELETE("/:id", h.DeleteCategory)
		}
	}

	return router
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("took", time.Since(start)),
		)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
