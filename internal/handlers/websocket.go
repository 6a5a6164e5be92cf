package handlers

import (
	ws "ngabarin/gateway/internal/websocket"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WebSocketUpgrade checks if the request should be upgraded to WebSocket
func WebSocketUpgrade(c *fiber.Ctx) error {
	// Check if this is a WebSocket upgrade request
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
		"success": false,
		"error":   "WebSocket upgrade required",
	})
}

// WebSocketHandler handles WebSocket connections
func (h *Handler) WebSocketHandler(c *websocket.Conn) {
	// Get user info from context (set by auth middleware)
	userID, _ := c.Locals("userID").(string)
	uniqueID, _ := c.Locals("uniqueID").(string)
	if userID == "" {
		c.Close()
		return
	}

	client := ws.NewClient(userID, uniqueID, c, h.Hub, h.Client)

	// Register client
	if !h.Hub.Join(client) {
		c.Close()
		return
	}

	// Start read and write pumps in separate goroutines
	go client.WritePump()
	client.ReadPump() // This blocks until connection closes
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(c *fiber.Ctx) error {
	if h.Hub == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "WebSocket hub not initialized",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"onlineUsers": h.Hub.GetOnlineCount(),
			"userIds":     h.Hub.GetOnlineUsers(),
		},
	})
}
