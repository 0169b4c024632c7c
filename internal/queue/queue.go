// Package queue publishes mail messages to RabbitMQ for the mail worker.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const EmailQueue = "email_queue"

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareEmailQueue declares the durable queue shared by the API and the mail worker.
func DeclareEmailQueue(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		EmailQueue,
		true,  // durable
		false, // auto delete
		false, // exclusive
		false, // no wait
		nil,
	)
}

type MailPublisher struct {
	ch      Channel
	timeout time.Duration
}

func NewMailPublisher(ch Channel, timeout time.Duration) *MailPublisher {
	return &MailPublisher{
		ch:      ch,
		timeout: timeout,
	}
}

func (p *MailPublisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		EmailQueue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
