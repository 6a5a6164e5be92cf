package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"ngabarin/gateway/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys, also used as envelope types
const (
	RoutingMessageSent   = "chat.message.sent.v1"
	RoutingCallInitiated = "chat.call.initiated.v1"
	RoutingCallEnded     = "chat.call.ended.v1"
)

const publishTimeout = 5 * time.Second

// Meta describes an envelope
type Meta struct {
	ID            string    `json:"id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer,omitempty"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

// Envelope is the JSON body published to the exchange
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// AMQPConfig configures the publisher
type AMQPConfig struct {
	URL      string
	Exchange string
	Producer string
}

// AMQPPublisher fans chat events out to a RabbitMQ topic exchange for
// downstream consumers (persistence, push notifications).
type AMQPPublisher struct {
	cfg  AMQPConfig
	conn *amqp.Connection

	mu sync.Mutex
	ch *amqp.Channel
}

// DialAMQP connects, opens a channel and declares the exchange
func DialAMQP(cfg AMQPConfig) (*AMQPPublisher, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = "chat"
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	return &AMQPPublisher{cfg: cfg, conn: conn, ch: ch}, nil
}

// Close closes the channel and the connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	return p.conn.Close()
}

// SendMessage implements MessageSender
func (p *AMQPPublisher) SendMessage(ctx context.Context, msg models.OutgoingMessage) {
	p.publish(ctx, RoutingMessageSent, msg.ID, msg)
}

// CallInitiated implements Signaler
func (p *AMQPPublisher) CallInitiated(ctx context.Context, sig models.CallSignal) {
	p.publish(ctx, RoutingCallInitiated, sig.ChatID, sig)
}

// EndCall implements Signaler
func (p *AMQPPublisher) EndCall(ctx context.Context, sig models.CallSignal) {
	p.publish(ctx, RoutingCallEnded, sig.ChatID, sig)
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey, correlationID string, data any) {
	env := NewEnvelope(routingKey, correlationID, p.cfg.Producer, data)

	body, err := json.Marshal(env)
	if err != nil {
		log.Printf("amqp: marshal %s: %v", routingKey, err)
		return
	}

	// The session context may already be gone; publishing must not depend on it
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		log.Printf("amqp: publisher closed, dropping %s %s", routingKey, env.Meta.ID)
		return
	}

	err = p.ch.PublishWithContext(pubCtx, p.cfg.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: env.Meta.CorrelationID,
		Type:          env.Meta.Type,
		Timestamp:     env.Meta.Time,
		AppId:         p.cfg.Producer,
	})
	if err != nil {
		log.Printf("amqp: publish %s: %v", routingKey, err)
	}
}

// NewEnvelope wraps data with a fresh id. The correlation id falls back to the id.
func NewEnvelope(eventType, correlationID, producer string, data any) Envelope {
	id := uuid.New().String()
	if correlationID == "" {
		correlationID = id
	}
	return Envelope{
		Meta: Meta{
			ID:            id,
			CorrelationID: correlationID,
			Producer:      producer,
			Time:          time.Now().UTC(),
			Type:          eventType,
		},
		Data: data,
	}
}
