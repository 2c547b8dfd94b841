package handlers

import (
	"github.com/chachabrian/carmitra-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler handles WebSocket connections
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		role := c.GetString("role")

		// Convert Gin's ResponseWriter to http.ResponseWriter
		services.HandleWebSocket(hub, c.Writer, c.Request, userID, role)
	}
}
