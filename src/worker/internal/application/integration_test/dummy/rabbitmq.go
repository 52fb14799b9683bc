package dummy

import (
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/midifi/src/shared/lib/rabbitmq"
	"github.com/veedubyou/midifi/src/worker/internal/application/worker"
)

var _ rabbitmq.Publisher = &RabbitMQ{}
var _ worker.MessageChannel = &RabbitMQ{}
var _ amqp091.Acknowledger = RabbitMQAcknowledger{}

type RabbitMQ struct {
	Unavailable    bool
	MessageChannel chan amqp091.Delivery

	mutex       sync.Mutex
	ackCounter     int
	nackCounter    int
	requeueCounter int
	closed         bool
}

type RabbitMQAcknowledger struct {
	ack  func()
	nack func(requeue bool)
}

func NewRabbitMQ() *RabbitMQ {
	return &RabbitMQ{
		Unavailable:    false,
		MessageChannel: make(chan amqp091.Delivery, 100),
	}
}

func (r *RabbitMQ) Publish(msg amqp091.Publishing) error {
	if r.Unavailable {
		return NetworkFailure
	}

	acknowledger := RabbitMQAcknowledger{
		ack: func() {
			r.mutex.Lock()
			defer r.mutex.Unlock()
			r.ackCounter++
		},
		nack: func(requeue bool) {
			r.mutex.Lock()
			defer r.mutex.Unlock()
			r.nackCounter++
			if requeue {
				r.requeueCounter++
			}
		},
	}

	r.MessageChannel <- amqp091.Delivery{
		Acknowledger:    acknowledger,
		ContentType:     msg.ContentType,
		ContentEncoding: msg.ContentEncoding,
		DeliveryMode:    msg.DeliveryMode,
		Timestamp:       msg.Timestamp,
		Type:            msg.Type,
		Body:            msg.Body,
	}
	return nil
}

func (r *RabbitMQ) Qos(_ int, _ int, _ bool) error {
	if r.Unavailable {
		return NetworkFailure
	}

	return nil
}

func (r *RabbitMQ) Consume(_ string, _ string, _ bool, _ bool, _ bool, _ bool, _ amqp091.Table) (<-chan amqp091.Delivery, error) {
	if r.Unavailable {
		return nil, NetworkFailure
	}

	return r.MessageChannel, nil
}

// Close ends the delivery stream, the way a closed amqp channel does.
func (r *RabbitMQ) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.closed {
		r.closed = true
		close(r.MessageChannel)
	}

	return nil
}

func (r *RabbitMQ) AckCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.ackCounter
}

func (r *RabbitMQ) NackCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.nackCounter
}

func (r *RabbitMQ) RequeueCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.requeueCounter
}

func (r RabbitMQAcknowledger) Ack(tag uint64, multiple bool) error {
	r.ack()
	return nil
}

func (r RabbitMQAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	r.nack(requeue)
	return nil
}

func (r RabbitMQAcknowledger) Reject(tag uint64, requeue bool) error {
	r.nack(requeue)
	return nil
}
