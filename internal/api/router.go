package api

import (
	"context"
	"net/http"
	"time"

	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Version is reported by GET /health
const Version = "1.0"

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. health may be nil.
func NewRouter(services *service.Services, cfg *config.Config, health HealthChecker, log zerolog.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(metricsMiddleware())
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	auth := newAuthenticator(services.User, log)

	// Handlers
	posts := NewPostHandler(services, log)
	comments := NewCommentHandler(services, log)
	users := NewUserHandler(services, log)
	taxonomy := NewTaxonomyHandler(services, log)
	feed := NewFeedHandler(services, log)
	export := NewExportHandler(services, log)

	// Operational endpoints
	router.GET("/health", healthCheck(health, log))
	router.GET("/stats", statsHandler(services, log))
	router.GET("/metrics", gin.WrapH(metricsHandler()))

	// The :id segment is the slug on GET /posts/:id and the post id elsewhere;
	// gin requires one wildcard name per position.
	p := router.Group("/posts")
	{
		p.GET("", posts.List)
		p.GET("/trending", posts.Trending)
		p.GET("/search", posts.Search)
		p.POST("", auth.optional(), posts.Create)
		p.GET("/:id", posts.GetBySlug)
		p.PUT("/:id", auth.required(), posts.Update)
		p.DELETE("/:id", auth.required(), posts.Delete)
		p.POST("/:id/view", posts.View)
		p.POST("/:id/like", posts.Like)
		p.GET("/:id/related", posts.Related)
		p.POST("/:id/share", posts.Share)
		p.GET("/:id/comments", comments.List)
		p.POST("/:id/comments", auth.required(), comments.Create)
		p.POST("/:id/reactions", auth.required(), posts.React)
		p.POST("/:id/bookmark", auth.required(), posts.Bookmark)
	}

	router.POST("/users", users.Signup)
	router.POST("/token", users.Login)
	me := router.Group("/users/me", auth.required())
	{
		me.GET("", users.Me)
		me.PUT("/profile", users.UpdateProfile)
		me.GET("/bookmarks", users.Bookmarks)
	}

	router.GET("/categories", taxonomy.ListCategories)
	router.POST("/categories", auth.required(), taxonomy.CreateCategory)
	router.DELETE("/categories/:id", auth.required(), taxonomy.DeleteCategory)
	router.GET("/tags", taxonomy.ListTags)
	router.POST("/tags", auth.required(), taxonomy.CreateTag)

	router.GET("/feed/rss", feed.RSS)

	router.GET("/admin/export/posts", auth.required(), export.StreamPosts)

	return router
}

// healthCheck returns the health status, including a database ping
func healthCheck(health HealthChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health != nil {
			ctx, cancel := contextWithTimeout(c, 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"version": Version,
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": Version,
		})
	}
}

// statsHandler returns row counts
func statsHandler(services *service.Services, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := services.Stats.Stats(c.Request.Context())
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"database":  stats,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// corsMiddleware allows the configured origins. A single "*" allows any
// origin without credentials.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
