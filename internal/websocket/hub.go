package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"ngabarin/gateway/internal/directory"
	"ngabarin/gateway/internal/events"
	"ngabarin/gateway/internal/models"
)

const presenceTimeout = 5 * time.Second

// Hub maintains the set of active clients and delivers events to them. It
// is the live transport for composed messages and call signals.
type Hub struct {
	// Registered clients mapped by user ID
	Clients map[string]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	directory directory.Directory

	// Closed once Run returns
	done chan struct{}

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub. dir may be nil, which disables presence.
func NewHub(dir directory.Directory) *Hub {
	return &Hub{
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		directory:  dir,
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		}
	}
}

// Join hands a new connection to the hub. It returns false once the hub
// has shut down.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		client.closeSend()
		return false
	}
}

// Leave hands a closing connection to the hub; after shutdown the client
// is closed directly
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
		client.closeSend()
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	// If user already has a connection, close the old one
	if existingClient, ok := h.Clients[client.ID]; ok && existingClient != client {
		existingClient.closeSend()
	}
	h.Clients[client.ID] = client
	h.mu.Unlock()

	h.updatePresence(client.ID, true)

	log.Printf("Client connected: %s (%s)", client.UniqueID, client.ID)
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	current, ok := h.Clients[client.ID]
	if ok && current == client {
		delete(h.Clients, client.ID)
	}
	h.mu.Unlock()

	client.closeSend()

	// A replaced connection leaves presence to its successor
	if !ok || current != client {
		return
	}

	h.updatePresence(client.ID, false)

	log.Printf("Client disconnected: %s (%s)", client.UniqueID, client.ID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.Clients {
		client.closeSend()
		delete(h.Clients, id)
	}
}

// updatePresence stores the user's online status and tells their contacts
func (h *Hub) updatePresence(userID string, isOnline bool) {
	if h.directory == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()

	now := time.Now()
	if err := h.directory.SetPresence(ctx, userID, isOnline, now); err != nil {
		log.Printf("Failed to update online status: %v", err)
	}

	contacts, err := h.directory.Contacts(ctx, userID)
	if err != nil {
		log.Printf("Failed to get contacts: %v", err)
		return
	}

	eventType := events.EventUserOnline
	if !isOnline {
		eventType = events.EventUserOffline
	}

	h.BroadcastToUsers(contacts, events.New(eventType, events.PresencePayload{
		UserID:   userID,
		IsOnline: isOnline,
		LastSeen: now,
	}))
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID string, message events.WSMessage) {
	h.BroadcastToUsers([]string{userID}, message)
}

// BroadcastToUsers sends a message to multiple users
func (h *Hub) BroadcastToUsers(userIDs []string, message events.WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		if client, ok := h.Clients[userID]; ok {
			if !client.enqueue(data) {
				log.Printf("Failed to send message to client: %s", userID)
			}
		}
	}
}

// SendMessage delivers a composed message to the recipient and echoes it to
// the sender's other screens
func (h *Hub) SendMessage(_ context.Context, msg models.OutgoingMessage) {
	h.BroadcastToUser(msg.RecipientID, events.New(events.EventMessageReceived, msg))
	h.BroadcastToUser(msg.SenderID, events.New(events.EventMessageSent, msg))
}

// CallInitiated rings the recipient, naming the chat as the recipient sees it
func (h *Hub) CallInitiated(_ context.Context, sig models.CallSignal) {
	client := h.client(sig.RecipientID)
	if client == nil {
		return
	}
	sig.ChatID = client.chatWith(sig.FromID, sig.ChatID)
	client.Emit(events.New(events.EventCallIncoming, sig))
}

// EndCall tears down the recipient's side of the call and tells them it is over
func (h *Hub) EndCall(_ context.Context, sig models.CallSignal) {
	client := h.client(sig.RecipientID)
	if client == nil {
		return
	}
	if sess := client.sessionWith(sig.FromID); sess != nil {
		sess.TerminateCall(sig.CallerID)
	}
	sig.ChatID = client.chatWith(sig.FromID, sig.ChatID)
	client.Emit(events.New(events.EventCallEnded, sig))
}

func (h *Hub) client(userID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.Clients[userID]
}

// IsUserOnline checks if a user is currently connected
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.Clients[userID]
	return ok
}

// GetOnlineUsers returns a list of currently online user IDs
func (h *Hub) GetOnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userIDs := make([]string, 0, len(h.Clients))
	for userID := range h.Clients {
		userIDs = append(userIDs, userID)
	}

	return userIDs
}

// GetOnlineCount returns the number of currently connected clients
func (h *Hub) GetOnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.Clients)
}
