package routes

import (
	"ngabarin/gateway/internal/handlers"
	"ngabarin/gateway/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, h *handlers.Handler) {
	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Ngabarin gateway is running",
		})
	})

	// Share links (public)
	api.Get("/share", middleware.RelaxedRateLimiter(), handlers.ShareLinks)

	// Upload routes (protected)
	uploads := api.Group("/upload", middleware.AuthMiddleware)
	uploads.Post("/file", middleware.UploadRateLimiter(), h.UploadFile)

	// Serve uploaded files (public)
	app.Get("/uploads/:type/:filename", h.GetFile)

	// WebSocket route (protected)
	api.Get("/ws", middleware.AuthMiddleware, middleware.ConnectRateLimiter(), handlers.WebSocketUpgrade, websocket.New(h.WebSocketHandler))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", middleware.AuthMiddleware, h.GetWebSocketStats)
}
