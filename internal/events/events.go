// Package events defines the websocket wire protocol between mobile clients
// and the gateway.
package events

import (
	"encoding/json"
	"time"

	"ngabarin/gateway/internal/models"
)

// EventType represents different WebSocket event types
type EventType string

const (
	// Connection events
	EventConnect    EventType = "connect"
	EventDisconnect EventType = "disconnect"

	// Chat screen lifecycle (client -> server)
	EventScreenMount   EventType = "screen_mount"
	EventScreenUnmount EventType = "screen_unmount"

	// Composition intents (client -> server)
	EventUpdateText      EventType = "update_text"
	EventAttach          EventType = "attach"
	EventDetach          EventType = "detach"
	EventSetReply        EventType = "set_reply"
	EventClearReply      EventType = "clear_reply"
	EventStartRecording  EventType = "start_recording"
	EventStopRecording   EventType = "stop_recording"
	EventCancelRecording EventType = "cancel_recording"
	EventSend            EventType = "send"

	// Call intents (client -> server)
	EventCallStart        EventType = "call_start"
	EventCallAccept       EventType = "call_accept"
	EventCallToggleMute   EventType = "call_toggle_mute"
	EventCallToggleCamera EventType = "call_toggle_camera"
	EventCallEnd          EventType = "call_end"

	// Permission round trip
	EventPermissionRequest EventType = "permission_request" // server -> client
	EventPermissionResult  EventType = "permission_result"  // client -> server

	// Session state (server -> client)
	EventDraftState    EventType = "draft_state"
	EventRecordingTick EventType = "recording_tick"
	EventCallState     EventType = "call_state"

	// Message events
	EventMessageSent     EventType = "message_sent"
	EventMessageReceived EventType = "message_received"

	// Call signaling (server -> remote client)
	EventCallIncoming EventType = "call_incoming"
	EventCallEnded    EventType = "call_ended"

	// Typing events
	EventTypingStart EventType = "typing_start"
	EventTypingStop  EventType = "typing_stop"

	// Presence events
	EventUserOnline  EventType = "user_online"
	EventUserOffline EventType = "user_offline"

	// Error events
	EventError EventType = "error"
)

// Error codes carried by ErrorPayload
const (
	CodePermissionDenied = "permission_denied"
	CodeInvalidPayload   = "invalid_payload"
	CodeNoSession        = "no_session"
	CodeCallFailed       = "call_failed"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// New stamps a message with the current time
func New(t EventType, payload interface{}) WSMessage {
	return WSMessage{Type: t, Payload: payload, Timestamp: time.Now()}
}

// IncomingMessage represents messages received from clients. The payload
// is decoded per event type.
type IncomingMessage struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ScreenPayload identifies a chat screen
type ScreenPayload struct {
	ChatID      string `json:"chatId"`
	RecipientID string `json:"recipientId,omitempty"`
}

// TextPayload carries update_text
type TextPayload struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

// AttachPayload carries attach; an empty kind is inferred from the name
type AttachPayload struct {
	ChatID      string                `json:"chatId"`
	Kind        models.AttachmentKind `json:"kind,omitempty"`
	SourceRef   string                `json:"sourceRef"`
	DisplayName string                `json:"displayName,omitempty"`
}

// ReplyPayload carries set_reply
type ReplyPayload struct {
	ChatID string                `json:"chatId"`
	Reply  models.ReplyReference `json:"reply"`
}

// DetachPayload carries detach
type DetachPayload struct {
	ChatID       string `json:"chatId"`
	AttachmentID string `json:"attachmentId"`
}

// StopRecordingPayload carries stop_recording; an empty source discards the note
type StopRecordingPayload struct {
	ChatID    string `json:"chatId"`
	SourceRef string `json:"sourceRef"`
}

// CallStartPayload carries call_start and call_accept
type CallStartPayload struct {
	ChatID   string `json:"chatId"`
	CallerID string `json:"callerId,omitempty"` // call_accept only
}

// PermissionRequestPayload asks the client for capabilities
type PermissionRequestPayload struct {
	RequestID    string   `json:"requestId"`
	Capabilities []string `json:"capabilities"`
}

// PermissionResultPayload is the client's answer
type PermissionResultPayload struct {
	RequestID string            `json:"requestId"`
	Grants    map[string]string `json:"grants"`
}

// TypingPayload represents typing indicator payload
type TypingPayload struct {
	UserID   string `json:"userId"`
	ChatID   string `json:"chatId,omitempty"`
	GroupID  string `json:"groupId,omitempty"`
	UserName string `json:"userName"`
}

// PresencePayload represents user presence payload
type PresencePayload struct {
	UserID   string    `json:"userId"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen,omitempty"`
}

// ErrorPayload represents error event payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ChatID  string `json:"chatId,omitempty"`
}
