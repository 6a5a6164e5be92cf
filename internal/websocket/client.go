package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"ngabarin/gateway/internal/call"
	"ngabarin/gateway/internal/directory"
	"ngabarin/gateway/internal/events"
	"ngabarin/gateway/internal/permission"
	"ngabarin/gateway/internal/session"
	"ngabarin/gateway/internal/transport"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const lookupTimeout = 5 * time.Second

// ErrClientClosed is returned for permission requests on a closed connection
var ErrClientClosed = errors.New("client closed")

// ClientOptions wires a client to the shared collaborators
type ClientOptions struct {
	Channel   transport.Channel
	Directory directory.Directory
	Media     func(chatID string) call.MediaFactory
}

// Client represents a WebSocket client connection. Each chat screen the
// client mounts gets its own session.
type Client struct {
	ID       string // User ID
	UniqueID string // User's unique ID (#WORD-123)
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan []byte

	opts ClientOptions

	mu       sync.Mutex
	closed   bool
	sessions map[string]*session.Session
	pending  map[string]chan map[permission.Capability]permission.Grant
}

// NewClient creates a new WebSocket client
func NewClient(userID, uniqueID string, conn *websocket.Conn, hub *Hub, opts ClientOptions) *Client {
	return &Client{
		ID:       userID,
		UniqueID: uniqueID,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, 256),
		opts:     opts,
		sessions: make(map[string]*session.Session),
		pending:  make(map[string]chan map[permission.Capability]permission.Grant),
	}
}

// ReadPump handles incoming messages from the client
func (c *Client) ReadPump() {
	defer func() {
		c.closeSessions()
		c.Hub.Leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Parse incoming message
		var incoming events.IncomingMessage
		if err := json.Unmarshal(message, &incoming); err != nil {
			log.Printf("Failed to parse message: %v", err)
			continue
		}

		c.handleIncomingMessage(incoming)
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleIncomingMessage processes different types of incoming messages
func (c *Client) handleIncomingMessage(msg events.IncomingMessage) {
	switch msg.Type {
	case events.EventTypingStart, events.EventTypingStop:
		c.handleTyping(msg)
	case events.EventScreenMount:
		c.handleMount(msg)
	case events.EventScreenUnmount:
		c.handleUnmount(msg)
	case events.EventPermissionResult:
		c.handlePermissionResult(msg)
	default:
		c.routeToSession(msg)
	}
}

// handleTyping relays typing indicators to the other participant
func (c *Client) handleTyping(msg events.IncomingMessage) {
	var p events.ScreenPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil || p.ChatID == "" {
		return
	}

	recipient := p.RecipientID
	if recipient == "" {
		recipient = p.ChatID
	}

	c.Hub.BroadcastToUser(recipient, events.New(msg.Type, events.TypingPayload{
		UserID: c.ID,
		ChatID: p.ChatID,
	}))
}

// handleMount creates the session for a chat screen, replacing a stale one
func (c *Client) handleMount(msg events.IncomingMessage) {
	var p events.ScreenPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil || p.ChatID == "" {
		c.emitError(events.CodeInvalidPayload, "screen_mount requires chatId", "")
		return
	}

	// Direct chats are keyed by the other user's ID
	recipient := p.RecipientID
	if recipient == "" {
		recipient = p.ChatID
	}

	sess := session.New(session.Config{
		ChatID:        p.ChatID,
		UserID:        c.ID,
		RecipientID:   recipient,
		RecipientName: c.lookupName(recipient),
	}, session.Deps{
		Channel: c.opts.Channel,
		Gate:    permission.NewGate(c),
		Media:   c.opts.Media,
	}, c)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sess.Close()
		return
	}
	stale := c.sessions[p.ChatID]
	c.sessions[p.ChatID] = sess
	c.mu.Unlock()

	if stale != nil {
		stale.Close()
	}

	c.Emit(events.New(events.EventDraftState, session.DraftPayload{
		ChatID: p.ChatID,
		Draft:  sess.Draft(),
	}))
}

func (c *Client) handleUnmount(msg events.IncomingMessage) {
	var p events.ScreenPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return
	}

	c.mu.Lock()
	sess := c.sessions[p.ChatID]
	delete(c.sessions, p.ChatID)
	c.mu.Unlock()

	if sess != nil {
		sess.Close()
	}
}

func (c *Client) routeToSession(msg events.IncomingMessage) {
	var p events.ScreenPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.emitError(events.CodeInvalidPayload, err.Error(), "")
			return
		}
	}

	c.mu.Lock()
	sess := c.sessions[p.ChatID]
	c.mu.Unlock()

	if sess == nil {
		c.emitError(events.CodeNoSession, fmt.Sprintf("no mounted screen for chat %q", p.ChatID), p.ChatID)
		return
	}

	if err := sess.Handle(msg); err != nil {
		log.Printf("Session %s/%s rejected %s: %v", c.ID, p.ChatID, msg.Type, err)
		c.emitError(events.CodeInvalidPayload, err.Error(), p.ChatID)
	}
}

// RequestCapabilities asks the device for capabilities over the socket and
// waits for the matching permission_result. It implements permission.Provider.
func (c *Client) RequestCapabilities(ctx context.Context, caps []permission.Capability) (map[permission.Capability]permission.Grant, error) {
	requestID := uuid.New().String()
	result := make(chan map[permission.Capability]permission.Grant, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.pending[requestID] = result
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, requestID)
		c.mu.Unlock()
	}()

	names := make([]string, len(caps))
	for i, cp := range caps {
		names[i] = string(cp)
	}
	c.Emit(events.New(events.EventPermissionRequest, events.PermissionRequestPayload{
		RequestID:    requestID,
		Capabilities: names,
	}))

	select {
	case grants := <-result:
		return grants, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) handlePermissionResult(msg events.IncomingMessage) {
	var p events.PermissionResultPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		log.Printf("Invalid permission result: %v", err)
		return
	}

	grants := make(map[permission.Capability]permission.Grant, len(p.Grants))
	for k, v := range p.Grants {
		grants[permission.Capability(k)] = permission.Grant(v)
	}

	c.mu.Lock()
	result, ok := c.pending[p.RequestID]
	c.mu.Unlock()

	if !ok {
		// The requesting screen is gone or the answer is a duplicate
		return
	}

	select {
	case result <- grants:
	default:
	}
}

// Emit queues an event for the client. It implements session.Emitter.
func (c *Client) Emit(msg events.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal %s: %v", msg.Type, err)
		return
	}
	if !c.enqueue(data) {
		log.Printf("Dropped %s for client %s", msg.Type, c.ID)
	}
}

func (c *Client) emitError(code, message, chatID string) {
	c.Emit(events.New(events.EventError, events.ErrorPayload{
		Code:    code,
		Message: message,
		ChatID:  chatID,
	}))
}

// enqueue hands data to the write pump without blocking
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend stops the write pump; safe to call more than once
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// closeSessions unmounts every screen of the client
func (c *Client) closeSessions() {
	c.mu.Lock()
	sessions := make([]*session.Session, 0, len(c.sessions))
	for chatID, sess := range c.sessions {
		sessions = append(sessions, sess)
		delete(c.sessions, chatID)
	}
	c.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

func (c *Client) lookupName(userID string) string {
	if c.opts.Directory == nil {
		return userID
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	name, err := c.opts.Directory.DisplayName(ctx, userID)
	if err != nil {
		log.Printf("Failed to resolve name for %s: %v", userID, err)
		return userID
	}
	return name
}

// sessionWith returns the mounted screen whose other participant is peerID
func (c *Client) sessionWith(peerID string) *session.Session {
	if peerID == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sess := range c.sessions {
		if sess.RecipientID() == peerID {
			return sess
		}
	}
	return nil
}

// chatWith names the chat with peerID on this client's side. Without a
// mounted screen it falls back to the direct-chat convention.
func (c *Client) chatWith(peerID, fallback string) string {
	if sess := c.sessionWith(peerID); sess != nil {
		return sess.ChatID()
	}
	if peerID != "" {
		return peerID
	}
	return fallback
}

// SessionCount returns the number of mounted screens
func (c *Client) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
