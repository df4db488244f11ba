package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatcore/internal/ws"
)

type HealthHandler struct {
	hub       *ws.Hub
	startedAt time.Time
}

func NewHealthHandler(hub *ws.Hub, startedAt time.Time) *HealthHandler {
	return &HealthHandler{hub: hub, startedAt: startedAt}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         time.Since(h.startedAt).Seconds(),
		"wsConnections":  h.hub.ConnectionCount(),
		"onlineUsers":    h.hub.OnlineUserCount(),
	})
}
