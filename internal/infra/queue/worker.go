package queue

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EmailDeliverer renders a template and sends it over SMTP.
type EmailDeliverer interface {
	Send(to, template string, data map[string]string) error
}

// SMSDeliverer sends a plain text message.
type SMSDeliverer interface {
	Send(to, message string) error
}

// Worker consumes the notifications queue and routes each message to the
// channel's sender. Failures are rejected without requeue and land in the DLQ.
type Worker struct {
	Channel *amqp.Channel
	Email   EmailDeliverer
	SMS     SMSDeliverer
}

func NewWorker(ch *amqp.Channel, email EmailDeliverer, sms SMSDeliverer) *Worker {
	return &Worker{
		Channel: ch,
		Email:   email,
		SMS:     sms,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Fatalf("[WORKER] failed to register consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload NotificationPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("[WORKER] invalid JSON, rejecting: %s", err)
				d.Nack(false, false)
				continue
			}

			if err := w.deliver(payload); err != nil {
				log.Printf("[WORKER] delivery failed (channel=%s to=%s template=%s): %s",
					payload.Channel, payload.To, payload.Template, err)
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	log.Printf("[WORKER] consuming queue '%s'", queueName)
	<-forever
}

func (w *Worker) deliver(payload NotificationPayload) error {
	switch payload.Channel {
	case ChannelEmail:
		return w.Email.Send(payload.To, payload.Template, payload.Data)

	case ChannelSMS:
		return w.SMS.Send(payload.To, payload.Message)

	default:
		// Unknown channel: ack it out of the queue, there is nothing to retry.
		log.Printf("[WORKER] unknown channel %q, dropping message", payload.Channel)
		return nil
	}
}
