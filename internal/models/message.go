package models

import "time"

// AttachmentKind classifies staged media
type AttachmentKind string

const (
	KindImage    AttachmentKind = "image"
	KindVideo    AttachmentKind = "video"
	KindAudio    AttachmentKind = "audio"
	KindDocument AttachmentKind = "document"
	KindLink     AttachmentKind = "link"
)

// Valid reports whether k is one of the known kinds
func (k AttachmentKind) Valid() bool {
	switch k {
	case KindImage, KindVideo, KindAudio, KindDocument, KindLink:
		return true
	}
	return false
}

// Attachment represents a media/document/link item staged for sending
type Attachment struct {
	ID              string         `json:"id"`
	Kind            AttachmentKind `json:"kind"`
	SourceRef       string         `json:"sourceRef"`
	DisplayName     string         `json:"displayName,omitempty"`
	DurationSeconds int            `json:"durationSeconds,omitempty"` // Recorded audio only
}

// ReplyReference points at the message being replied to
type ReplyReference struct {
	TargetMessageID string  `json:"targetMessageId"`
	PreviewText     *string `json:"previewText,omitempty"`
	AuthorID        string  `json:"authorId"`
}

// OutgoingMessage is the immutable payload handed to the transport on send
type OutgoingMessage struct {
	ID          string          `json:"id"`
	ChatID      string          `json:"chatId"`
	SenderID    string          `json:"senderId"`
	RecipientID string          `json:"recipientId"`
	Text        string          `json:"text"`
	Attachments []Attachment    `json:"attachments"`
	Reply       *ReplyReference `json:"reply,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
