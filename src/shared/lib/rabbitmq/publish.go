package rabbitmq

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const maxReconnectTime = 30 * time.Second

var _ Publisher = &QueuePublisher{}

//counterfeiter:generate . Publisher
type Publisher interface {
	Publish(msg amqp091.Publishing) error
}

func NewQueuePublisher(rabbitMQURL string, queueName string) (*QueuePublisher, error) {
	publisher := &QueuePublisher{
		rabbitMQURL: rabbitMQURL,
		queueName:   queueName,
	}

	err := publisher.connectChannel()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to connect to RabbitMQ")
	}

	return publisher, nil
}

// QueuePublisher publishes persistent JSON messages onto one durable queue,
// reconnecting when the broker drops the channel.
type QueuePublisher struct {
	rabbitMQURL string
	queueName   string

	lock    sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func (q *QueuePublisher) connectChannel() error {
	q.closeConnection()

	conn, err := amqp091.Dial(q.rabbitMQURL)
	if err != nil {
		return errors.Wrap(err, "Failed to dial rabbitMQURL")
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "Failed to create rabbit channel")
	}

	_, err = channel.QueueDeclare(
		q.queueName,
		true,
		false,
		false,
		false,
		nil,
	)

	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "Failed to declare the queue")
	}

	q.conn = conn
	q.channel = channel
	return nil
}

func (q *QueuePublisher) reconnect() error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxReconnectTime

	return backoff.RetryNotify(q.connectChannel, policy, func(err error, wait time.Duration) {
		log.WithError(err).WithField("wait", wait).Warn("Retrying rabbitMQ connection")
	})
}

func (q *QueuePublisher) publishWithoutRetry(msg amqp091.Publishing) error {
	if q.channel == nil {
		return amqp091.ErrClosed
	}

	msg.ContentType = "application/json"
	msg.DeliveryMode = amqp091.Persistent

	return q.channel.PublishWithContext(
		context.Background(),
		"",
		q.queueName,
		true,
		false,
		msg,
	)
}

func (q *QueuePublisher) Publish(msg amqp091.Publishing) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	err := q.publishWithoutRetry(msg)

	if err != nil {
		publishErr := errors.Wrap(err, "Failed to publish message to rabbitMQ channel")
		shouldReset := errors.Is(err, amqp091.ErrClosed)
		if !shouldReset {
			return publishErr
		}

		err = q.reconnect()
		if err != nil {
			log.WithError(err).
				Error("Unable to reconnect to rabbitMQ channel")
			return publishErr
		}

		return q.publishWithoutRetry(msg)
	}

	return nil
}

func (q *QueuePublisher) Close() {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.closeConnection()
}

func (q *QueuePublisher) closeConnection() {
	if q.conn != nil {
		_ = q.conn.Close()
	}

	q.conn = nil
	q.channel = nil
}
