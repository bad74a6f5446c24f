package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/easycollege/feedback-orchestrator/entity"
)

const (
	feedbackExchange   = "feedback.exchange"
	feedbackRoutingKey = "feedback.run"
)

// AMQPBroker carries job messages over a durable RabbitMQ queue with
// persistent delivery and manual acks. Queue position is not obtainable
// from AMQP, so Position always reports unknown.
type AMQPBroker struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

func NewAMQPBroker(conn *amqp.Connection, channel *amqp.Channel, queueName string) (*AMQPBroker, error) {
	if queueName == "" {
		queueName = "feedback.jobs"
	}

	err := channel.ExchangeDeclare(
		feedbackExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare feedback exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare feedback queue: %w", err)
	}

	err = channel.QueueBind(queueName, feedbackRoutingKey, feedbackExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("bind feedback queue: %w", err)
	}

	return &AMQPBroker{conn: conn, channel: channel, queueName: queueName}, nil
}

func (b *AMQPBroker) Publish(ctx context.Context, msg entity.JobMessage) error {
	msg.EnqueuedAt = time.Now().Unix()
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal job message: %w", err)
	}
	return b.channel.PublishWithContext(
		ctx,
		feedbackExchange,
		feedbackRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}

func (b *AMQPBroker) Consume(ctx context.Context) (<-chan Delivery, error) {
	msgs, err := b.channel.Consume(
		b.queueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("register feedback consumer: %w", err)
	}

	deliveries := make(chan Delivery)
	go func() {
		defer close(deliveries)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var jobMsg entity.JobMessage
				if err := json.Unmarshal(msg.Body, &jobMsg); err != nil {
					_ = msg.Nack(false, false)
					continue
				}
				d := Delivery{
					Message: jobMsg,
					Ack:     func() error { return msg.Ack(false) },
					Nack:    func(requeue bool) error { return msg.Nack(false, requeue) },
				}
				select {
				case deliveries <- d:
				case <-ctx.Done():
					_ = msg.Nack(false, true)
					return
				}
			}
		}
	}()
	return deliveries, nil
}

func (b *AMQPBroker) Position(_ context.Context, _ string) (*int, error) {
	return nil, nil
}

func (b *AMQPBroker) Ping(_ context.Context) error {
	if b.conn == nil || b.conn.IsClosed() {
		return fmt.Errorf("amqp connection closed")
	}
	return nil
}
