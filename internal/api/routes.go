package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/slingshot/internal/api/handlers"
	"github.com/playmatatu/slingshot/internal/config"
	"github.com/playmatatu/slingshot/internal/game"
	"github.com/playmatatu/slingshot/internal/logging"
	"github.com/playmatatu/slingshot/internal/middleware"
	"github.com/playmatatu/slingshot/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, mgr *game.SessionManager, hub *ws.Hub, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		logging.Named("api").Debug("no-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(mgr))
		v1.GET("/tuning", handlers.GetTuning(mgr))

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(mgr, cfg))
			sessions.GET("/:id", handlers.GetSession(mgr))
			sessions.DELETE("/:id", handlers.EndSession(mgr, cfg))
			sessions.GET("/:id/shots", handlers.ListShots(mgr))
			sessions.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleSessionWebSocket(ws.NewHandler(hub, mgr, cfg)))
		}

		op := v1.Group("/operator")
		{
			op.PUT("/tuning", handlers.UpdateTuning(db, mgr))
		}
	}
}
