package endpoints

import (
	"coderoom"
	websocket2 "coderoom/internal/api/websocket"
	"coderoom/pkg"
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, you should validate the origin
		return true
	},
}

type websocketHandler struct {
	hub       *websocket2.Hub
	processor *websocket2.Processor
	logger    zerolog.Logger
	config    coderoom.AppConfig
}

func newWebSocketHandler(hub *websocket2.Hub, processor *websocket2.Processor) *websocketHandler {
	return &websocketHandler{
		hub:       hub,
		processor: processor,
		logger:    coderoom.Logger,
		config:    coderoom.GetConfig(),
	}
}

// WebSocketHandler sets up WebSocket routes
func WebSocketHandler(router *graceful.Graceful, hub *websocket2.Hub, processor *websocket2.Processor) {
	h := newWebSocketHandler(hub, processor)

	wsRoutes := router.Group("/api/v1/ws")
	{
		wsRoutes.GET("", h.handleWebSocket)
		wsRoutes.GET("/stats", h.getChannelStats)
	}
}

// handleWebSocket upgrades the connection and registers it with the
// hub. A valid room token (from the join endpoint) pre-authorizes the
// connection for that room; join-doc with the room password works
// either way.
func (slf *websocketHandler) handleWebSocket(c *gin.Context) {
	var preAuthRoom string
	if token := c.Query("token"); token != "" {
		claims, err := pkg.ValidateRoomToken(token, slf.config.JWTConfig.Secret)
		if err != nil {
			slf.logger.Warn().Err(err).Msg("Rejected websocket upgrade with invalid token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		preAuthRoom = claims.RoomID
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}

	clientID := uuid.New().String()
	client := websocket2.NewClient(clientID, slf.hub, conn, slf.processor, preAuthRoom, slf.logger)

	slf.hub.Register(client)

	slf.logger.Info().
		Str("clientId", clientID).
		Str("preAuthRoom", preAuthRoom).
		Msg("WebSocket connection established")

	go client.WritePump()
	go client.ReadPump()
}

// getChannelStats returns the subscriber count per live channel.
func (slf *websocketHandler) getChannelStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"channels": slf.hub.Stats(),
	})
}
