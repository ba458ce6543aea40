package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

// Handler serves GET /ws/detections[?mode=face|eye|emotion|body]
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		mode, _ := c.Locals("ws_mode").(domain.DetectionMode)

		client := &Client{
			id:   uuid.New(),
			hub:  hub,
			conn: c,
			mode: mode,
			send: make(chan []byte, 256),
		}

		if !hub.join(client) {
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// UpgradeMiddleware rejects plain HTTP and validates the mode filter before
// the connection is upgraded
func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		mode := domain.DetectionMode(c.Query("mode"))
		if mode != "" && !mode.Valid() {
			return domain.ErrValidationFailed
		}
		c.Locals("ws_mode", mode)
		c.Locals("allowed", true)
		return c.Next()
	}
}
