package ws

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

type Client struct {
	id   uuid.UUID
	hub  *Hub
	conn *websocket.Conn
	mode domain.DetectionMode // empty = every mode
	send chan []byte
}

func (c *Client) wants(mode domain.DetectionMode) bool {
	return c.mode == "" || c.mode == mode
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
