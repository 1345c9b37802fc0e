package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/slingshot/internal/ws"
)

// HandleSessionWebSocket streams frames and accepts input for one session.
func HandleSessionWebSocket(h *ws.Handler) gin.HandlerFunc {
	return h.ServeSession
}
