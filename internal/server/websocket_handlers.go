package server

import (
	"encoding/json"
	"log/slog"

	"agora/internal/middleware"
	"agora/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler streams engagement events to an authenticated client.
// Inbound frames are ignored; the socket is push only.
// @Summary Realtime engagement events
// @Tags realtime
// @Param token query string true "Access token"
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		actor, ok := conn.Locals(middleware.ActorLocal).(models.Actor)
		if !ok || s.hub == nil {
			_ = conn.Close()
			return
		}
		uid := actor.ID

		restricted := &models.Channel{Type: models.ChannelRestricted}
		seesRestricted := s.featureFlags.ContentPolicy().CanAccessChannel(actor, restricted)
		client, err := s.hub.Register(uid, seesRestricted, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration rejected",
				slog.Uint64("user_id", uint64(uid)), slog.String("error", err.Error()))
			frame, _ := json.Marshal(fiber.Map{"error": err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, frame)
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		go client.WritePump()
		client.ReadPump()
	})
}
