// Package compose owns the outgoing message draft of a chat screen: text,
// staged attachments, the reply reference and the voice-note recorder.
package compose

import (
	"context"
	"errors"
	"sync"
	"time"

	"ngabarin/gateway/internal/models"
	"ngabarin/gateway/internal/permission"
	"ngabarin/gateway/internal/transport"

	"github.com/google/uuid"
)

var (
	// ErrEmptyDraft is returned by Send when there is neither text nor an attachment
	ErrEmptyDraft = errors.New("draft is empty")
	// ErrClosed is returned for intents arriving after the screen unmounted
	ErrClosed = errors.New("composer closed")
)

// Config identifies the thread a composer writes into
type Config struct {
	ChatID        string
	SenderID      string
	RecipientID   string
	RecipientName string

	Sender transport.MessageSender
	Gate   *permission.Gate
	Ticker TickerFunc                 // Defaults to time.Ticker
	OnTick func(state RecordingState) // Called for every recording second
}

// Draft is a point-in-time copy of the composition
type Draft struct {
	Text         string                 `json:"text"`
	Attachments  []models.Attachment    `json:"attachments"`
	Reply        *models.ReplyReference `json:"reply,omitempty"`
	ReplyPreview *Preview               `json:"replyPreview,omitempty"`
	Recording    RecordingState         `json:"recording"`
}

// Composer is the composition state machine for one mounted chat screen
type Composer struct {
	cfg      Config
	recorder *Recorder

	mu          sync.Mutex
	text        string
	attachments Staging
	reply       ReplyStaging
	closed      bool
}

// New creates a composer with an empty draft
func New(cfg Config) *Composer {
	return &Composer{
		cfg:      cfg,
		recorder: NewRecorder(cfg.Gate, cfg.Ticker, cfg.OnTick),
	}
}

// UpdateText replaces the draft text
func (c *Composer) UpdateText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.text = text
	return nil
}

// Attach stages a selection and returns the attachment it became
func (c *Composer) Attach(sel Selection) (models.Attachment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return models.Attachment{}, ErrClosed
	}
	return c.attachments.Add(sel), nil
}

// Detach removes a staged attachment by id
func (c *Composer) Detach(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.attachments.Remove(id)
	return nil
}

// Reply sets the message being replied to, replacing any previous one
func (c *Composer) Reply(ref models.ReplyReference) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.reply.Set(ref)
	return nil
}

// ClearReply drops the reply reference
func (c *Composer) ClearReply() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.reply.Clear()
	return nil
}

// StartRecording acquires the microphone and starts a voice note. It blocks
// until the platform answers the permission request.
func (c *Composer) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return c.recorder.Start(ctx)
}

// StopRecording ends the voice note and commits it as an audio attachment.
// An empty sourceRef discards the capture. Returns false when nothing was recording.
func (c *Composer) StopRecording(sourceRef string) (models.Attachment, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return models.Attachment{}, false, ErrClosed
	}

	sel, ok := c.recorder.Finish(sourceRef)
	if !ok || sourceRef == "" {
		return models.Attachment{}, false, nil
	}
	return c.attachments.Add(sel), true, nil
}

// CancelRecording discards any capture in progress
func (c *Composer) CancelRecording() {
	c.recorder.Reset()
}

// Send hands the draft to the transport and resets it. It is not idempotent:
// every successful call produces exactly one message.
func (c *Composer) Send(ctx context.Context) (models.OutgoingMessage, error) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return models.OutgoingMessage{}, ErrClosed
	}
	if c.text == "" && c.attachments.Len() == 0 {
		c.mu.Unlock()
		return models.OutgoingMessage{}, ErrEmptyDraft
	}

	msg := models.OutgoingMessage{
		ID:          uuid.New().String(),
		ChatID:      c.cfg.ChatID,
		SenderID:    c.cfg.SenderID,
		RecipientID: c.cfg.RecipientID,
		Text:        c.text,
		Attachments: c.attachments.List(),
		CreatedAt:   time.Now().UTC(),
	}
	if ref, ok := c.reply.Current(); ok {
		msg.Reply = &ref
	}

	c.resetLocked()
	c.mu.Unlock()

	if c.cfg.Sender != nil {
		c.cfg.Sender.SendMessage(ctx, msg)
	}
	return msg, nil
}

// Snapshot returns a copy of the current draft
func (c *Composer) Snapshot() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := Draft{
		Text:        c.text,
		Attachments: c.attachments.List(),
		Recording:   c.recorder.State(),
	}
	if ref, ok := c.reply.Current(); ok {
		d.Reply = &ref
		p := PreviewLabel(ref, c.cfg.SenderID, c.cfg.RecipientName)
		d.ReplyPreview = &p
	}
	return d
}

// Close discards the draft and stops the recorder. Later intents fail with ErrClosed.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.resetLocked()
	c.recorder.Close()
}

func (c *Composer) resetLocked() {
	c.text = ""
	c.attachments.Clear()
	c.reply.Clear()
}
