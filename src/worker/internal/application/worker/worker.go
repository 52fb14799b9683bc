package worker

import (
	"context"
	"sync"

	"github.com/apex/log"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
)

type MessageChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Close() error
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, message amqp091.Delivery) error
}

type QueueWorker struct {
	channel     MessageChannel
	channelLock sync.Mutex
	handler     MessageHandler
	queueName   string
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewQueueWorker(channel MessageChannel, queueName string, handler MessageHandler) *QueueWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &QueueWorker{
		channel:   channel,
		queueName: queueName,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func NewQueueWorkerFromConnection(conn *amqp091.Connection, queueName string, handler MessageHandler) (*QueueWorker, error) {
	rabbitChannel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, cerr.Wrap(err).Error("Failed to get channel")
	}

	queue, err := rabbitChannel.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)

	if err != nil {
		_ = rabbitChannel.Close()
		return nil, cerr.Wrap(err).Error("Failed to declare queue")
	}

	return NewQueueWorker(rabbitChannel, queue.Name, handler), nil
}

// Start consumes one message at a time until the channel closes or the worker
// is stopped. A run is long, so only one is held unacknowledged.
func (q *QueueWorker) Start() error {
	log.Info("Starting worker")

	q.channelLock.Lock()
	if q.channel == nil {
		q.channelLock.Unlock()
		return cerr.Error("Worker has been stopped")
	}

	channel := q.channel
	defer channel.Close()

	if err := channel.Qos(1, 0, false); err != nil {
		q.channelLock.Unlock()
		return cerr.Wrap(err).Error("Failed to set prefetch count")
	}

	messageStream, err := channel.Consume(
		q.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	q.channelLock.Unlock()

	if err != nil {
		return cerr.Field("queue_name", q.queueName).
			Wrap(err).Error("Failed to start consuming from channel")
	}

	for message := range messageStream {
		logger := log.WithField("message_type", message.Type)
		logger.Info("Handling message")
		err := q.handler.HandleMessage(q.ctx, message)
		if err != nil {
			err = cerr.Field("message_type", message.Type).
				Wrap(err).Error("Failed to process message")

			cerr.Log(err)

			// a message cut short by Stop goes back on the queue
			requeue := q.ctx.Err() != nil
			if err = message.Nack(false, requeue); err != nil {
				logger.Error("Failed to nack message")
			}
		} else {
			logger.Info("Successfully processed message")
			if err = message.Ack(false); err != nil {
				logger.Error("Failed to ack message")
			}
		}

		if q.ctx.Err() != nil {
			break
		}
	}

	return nil
}

// Stop cancels the run in progress and closes the channel. The interrupted
// message is requeued.
func (q *QueueWorker) Stop() {
	q.cancel()

	q.channelLock.Lock()
	defer q.channelLock.Unlock()
	if q.channel != nil {
		_ = q.channel.Close()
	}
	q.channel = nil
}
