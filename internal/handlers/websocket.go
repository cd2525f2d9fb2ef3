package handlers

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/requestdata"
	"github.com/racon-ai/racon-backend/internal/response"
	"github.com/racon-ai/racon-backend/internal/socket"
)

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, origin)
		},
	}
}

// WsHandler upgrades an authenticated request and subscribes the connection
// to its owner's channel.
func WsHandler(hub *socket.Hub, log *logger.Logger, allowedOrigins []string) gin.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)
	wsLog := log.With("handler", "WsHandler")
	return func(c *gin.Context) {
		userID := requestdata.UserID(c.Request.Context())
		if userID == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", "Unauthenticated!")
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			wsLog.Warn("Failed to upgrade to websocket", "error", err)
			return
		}

		// The request context ends with this handler; the connection outlives it.
		ctx, cancel := context.WithCancel(context.Background())
		client := socket.NewClient(conn, hub, userID, cancel, wsLog)
		hub.Subscribe(client, []string{socket.UserChannel(userID)})

		go client.WriteLoop(ctx)
		go client.ReadLoop(ctx)
	}
}
