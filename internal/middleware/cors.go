package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/slingshot/internal/config"
	"github.com/playmatatu/slingshot/internal/logging"
	"go.uber.org/zap"
)

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	log := logging.Named("cors")
	log.Info("configuring CORS", zap.String("environment", cfg.Environment), zap.String("frontend_url", cfg.FrontendURL))

	corsConfig := cors.Config{
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"X-Operator-Name", "X-Operator-Token", "Accept", "Cache-Control",
			"X-Requested-With",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		MaxAge: 12 * time.Hour,
	}

	corsConfig.AllowOrigins = allowedOrigins(cfg)
	corsConfig.AllowCredentials = true
	log.Debug("allowed origins", zap.Strings("origins", corsConfig.AllowOrigins))

	return cors.New(corsConfig)
}

// WebSocketCORSCheck validates WebSocket upgrade origins
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.ToLower(c.GetHeader("Connection")) != "upgrade" ||
			strings.ToLower(c.GetHeader("Upgrade")) != "websocket" {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			c.JSON(400, gin.H{"error": "WebSocket origin required"})
			c.Abort()
			return
		}

		if !originAllowed(cfg, origin) {
			c.JSON(403, gin.H{"error": "WebSocket origin not allowed"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if cfg.Environment == "development" {
		origins := []string{"http://localhost:5173", "http://127.0.0.1:5173"}
		if cfg.FrontendURL != "" && cfg.FrontendURL != origins[0] {
			origins = append(origins, cfg.FrontendURL)
		}
		return origins
	}
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"http://localhost:5173"}
}

func originAllowed(cfg *config.Config, origin string) bool {
	if cfg.Environment == "development" &&
		(strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
		return true
	}
	for _, o := range allowedOrigins(cfg) {
		if origin == o {
			return true
		}
	}
	return false
}
