package models

// CallDirection tells whether the local user placed or accepted the call
type CallDirection string

const (
	DirectionIncoming CallDirection = "incoming"
	DirectionOutgoing CallDirection = "outgoing"
)

// PermissionState tracks the device capability request for a call
type PermissionState string

const (
	PermissionUnrequested PermissionState = "unrequested"
	PermissionGranted     PermissionState = "granted"
	PermissionDenied      PermissionState = "denied"
)

// Participants identifies both ends of a one-to-one call
type Participants struct {
	CallerID    string `json:"callerId"`
	RecipientID string `json:"recipientId"`
}

// MediaState holds the local media toggles
type MediaState struct {
	Muted     bool `json:"muted"`
	CameraOff bool `json:"cameraOff"`
}

// CallSignal is what the signaling channel carries for call start/end
type CallSignal struct {
	ChatID      string `json:"chatId"`
	CallerID    string `json:"callerId"`
	RecipientID string `json:"recipientId"`
	FromID      string `json:"fromId,omitempty"`  // The user who sent the signal
	Channel     string `json:"channel,omitempty"` // Shared channel name, the chat ID
}
