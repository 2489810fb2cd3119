package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/graniteflow/crm-backend/internal/infra/http/middleware"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// NotificationPayload is the unit of work handed to the delivery worker.
// Template drives email rendering; Message is the literal SMS body.
type NotificationPayload struct {
	Channel  string            `json:"channel"`
	To       string            `json:"to"`
	Template string            `json:"template,omitempty"`
	Message  string            `json:"message,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
	LeadID   string            `json:"lead_id,omitempty"`
}

type NotificationProducerInterface interface {
	Publish(ctx context.Context, payload NotificationPayload) error
	PublishDelayed(ctx context.Context, payload NotificationPayload, delay time.Duration) error
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel

	mu       sync.Mutex
	declared map[string]bool
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn:     conn,
		Ch:       ch,
		declared: make(map[string]bool),
	}
}

func (p *RabbitMQProducer) Publish(ctx context.Context, payload NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	middleware.RecordNotificationPublished(payload.Channel)
	return nil
}

// PublishDelayed parks the message on the delay queue for its exact delay;
// the queue-level TTL dead-letters it into the notifications exchange for
// delivery. Delay queues are declared on first use and cached, since the
// delays in play are a small fixed set.
func (p *RabbitMQProducer) PublishDelayed(ctx context.Context, payload NotificationPayload, delay time.Duration) error {
	if delay <= 0 {
		return p.Publish(ctx, payload)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	queueName, err := p.delayQueue(delay)
	if err != nil {
		return err
	}

	err = p.Ch.PublishWithContext(ctx,
		"", // default exchange, straight to the delay queue
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish delayed notification: %w", err)
	}

	middleware.RecordNotificationPublished(payload.Channel)
	return nil
}

func (p *RabbitMQProducer) delayQueue(delay time.Duration) (string, error) {
	name := DelayQueueName(delay)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.declared[name] {
		return name, nil
	}

	_, err := p.Ch.QueueDeclare(name, true, false, false, false, delayQueueArgs(delay))
	if err != nil {
		return "", fmt.Errorf("failed to declare delay queue %s: %w", name, err)
	}

	p.declared[name] = true
	return name, nil
}

// DelayExpiration converts a delay to the millisecond string AMQP expects.
func DelayExpiration(delay time.Duration) string {
	return strconv.FormatInt(delay.Milliseconds(), 10)
}
