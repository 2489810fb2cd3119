package queue

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName     = "ex.notifications"
	QueueName        = "q.notifications"
	DelayQueuePrefix = "q.notifications.delay"
	DLQName          = "q.notifications.dlq"
	DLXName          = "ex.dlx"
	RoutingKey       = "k.notification"
)

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(user, pass, host, port string) (*RabbitMQ, error) {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

func setupTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(DLQName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	if err := ch.QueueBind(DLQName, RoutingKey, DLXName, false, nil); err != nil {
		return err
	}

	err = ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	// Failed deliveries dead-letter into the DLQ.
	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": RoutingKey,
	}

	_, err = ch.QueueDeclare(QueueName, true, false, false, false, args)
	if err != nil {
		return err
	}

	if err := ch.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil); err != nil {
		return err
	}

	return nil
}

// DelayQueueName returns the parking queue for the given delay. Each distinct
// delay gets its own queue: RabbitMQ only expires the message at the head of
// a queue, so mixing TTLs in one queue would hold short delays hostage behind
// long ones. Within a single-TTL queue expiry order matches enqueue order.
func DelayQueueName(delay time.Duration) string {
	return fmt.Sprintf("%s.%s", DelayQueuePrefix, DelayExpiration(delay))
}

// delayQueueArgs builds the arguments for a delay queue: a queue-level TTL
// and dead-lettering into the main notifications exchange. The queue has no
// consumer; expired messages re-enter the normal delivery path.
func delayQueueArgs(delay time.Duration) amqp.Table {
	return amqp.Table{
		"x-message-ttl":             delay.Milliseconds(),
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": RoutingKey,
	}
}
