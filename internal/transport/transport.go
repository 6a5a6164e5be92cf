// Package transport defines the collaborators that carry composed messages
// and call signals away from a chat screen session.
package transport

import (
	"context"

	"ngabarin/gateway/internal/models"
)

// MessageSender delivers an outgoing message. Delivery acknowledgement and
// retries belong to the implementation; callers never retry.
type MessageSender interface {
	SendMessage(ctx context.Context, msg models.OutgoingMessage)
}

// Signaler notifies the other party about call lifecycle changes
type Signaler interface {
	CallInitiated(ctx context.Context, sig models.CallSignal)
	EndCall(ctx context.Context, sig models.CallSignal)
}

// Channel is both a message sender and a signaler
type Channel interface {
	MessageSender
	Signaler
}

// Fanout forwards every call to each of its channels in order
type Fanout []Channel

// SendMessage implements MessageSender
func (f Fanout) SendMessage(ctx context.Context, msg models.OutgoingMessage) {
	for _, ch := range f {
		ch.SendMessage(ctx, msg)
	}
}

// CallInitiated implements Signaler
func (f Fanout) CallInitiated(ctx context.Context, sig models.CallSignal) {
	for _, ch := range f {
		ch.CallInitiated(ctx, sig)
	}
}

// EndCall implements Signaler
func (f Fanout) EndCall(ctx context.Context, sig models.CallSignal) {
	for _, ch := range f {
		ch.EndCall(ctx, sig)
	}
}
