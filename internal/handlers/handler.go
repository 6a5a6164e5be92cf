package handlers

import (
	ws "ngabarin/gateway/internal/websocket"
)

// Handler carries what the HTTP endpoints need
type Handler struct {
	Hub            *ws.Hub
	Client         ws.ClientOptions
	UploadDir      string
	MaxUploadBytes int64
}

// New creates the handler set. maxUploadMB bounds a single uploaded file.
func New(hub *ws.Hub, client ws.ClientOptions, uploadDir string, maxUploadMB int) *Handler {
	return &Handler{
		Hub:            hub,
		Client:         client,
		UploadDir:      uploadDir,
		MaxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
	}
}
