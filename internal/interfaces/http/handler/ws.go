package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/infrastructure/logger"
	"github.com/taskflow/backend/internal/infrastructure/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler upgrades authenticated requests to the push channel
type WebSocketHandler struct {
	BaseHandler
	server *websocket.Server
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(server *websocket.Server) *WebSocketHandler {
	return &WebSocketHandler{server: server}
}

// Connect godoc
// @ID           connectWebSocket
// @Summary      Open the push channel
// @Description  Clients send {"type":"subscribe","topic":"/topic/task-updates/{taskId}"} to follow a task.
// @Description  Notifications arrive on /user/queue/notifications without subscribing.
// @Tags         websocket
// @Success      101
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /ws [get]
func (h *WebSocketHandler) Connect(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	// The upgrader has already written a response when Serve fails
	if err := h.server.Serve(c.Writer, c.Request, p.UserID); err != nil {
		logger.L(c.Request.Context()).Debug("WebSocket upgrade failed",
			zap.String("user_id", p.UserID.String()),
			zap.Error(err))
	}
}
