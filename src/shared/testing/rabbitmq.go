package testing

import (
	"encoding/json"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/midifi/src/shared/lib/rabbitmq"
)

func MakeRabbitMQConnection() *amqp091.Connection {
	return ExpectSuccess(amqp091.Dial(RabbitMQHost))
}

// BeforeSuiteRabbitMQ skips the suite when no local broker is listening.
func BeforeSuiteRabbitMQ() *amqp091.Connection {
	if !reachable(RabbitMQHost) {
		Skip("local rabbitMQ is not running at " + RabbitMQHost)
	}

	return MakeRabbitMQConnection()
}

func ResetRabbitMQ(conn *amqp091.Connection) {
	channel := ExpectSuccess(conn.Channel())
	ExpectSuccess(channel.QueuePurge(RabbitMQQueueName, false))
}

func AfterSuiteRabbitMQ(conn *amqp091.Connection) {
	if conn == nil {
		return
	}

	channel := ExpectSuccess(conn.Channel())
	ExpectSuccess(channel.QueueDelete(RabbitMQQueueName, false, false, false))
}

func MakeRabbitMQPublisher() *rabbitmq.QueuePublisher {
	return ExpectSuccess(rabbitmq.NewQueuePublisher(RabbitMQHost, RabbitMQQueueName))
}

type ReceivedMessage struct {
	Type    string
	Message map[string]any
}

type RabbitMQConsumer struct {
	channel          *amqp091.Channel
	lock             sync.Mutex
	queueName        string
	receivedMessages []ReceivedMessage
	err              error
}

func NewRabbitMQConsumer(conn *amqp091.Connection) *RabbitMQConsumer {
	channel := ExpectSuccess(conn.Channel())

	return &RabbitMQConsumer{
		channel:   channel,
		queueName: RabbitMQQueueName,
	}
}

func (r *RabbitMQConsumer) AsyncStart() {
	r.lock.Lock()
	if r.channel == nil {
		r.lock.Unlock()
		return
	}

	messageStream := ExpectSuccess(r.channel.Consume(
		r.queueName,
		"",
		true,
		false,
		false,
		false,
		nil,
	))
	r.lock.Unlock()

	for message := range messageStream {
		r.lock.Lock()
		if r.err == nil {
			body := map[string]any{}
			if err := json.Unmarshal(message.Body, &body); err != nil {
				r.err = err
			} else {
				r.receivedMessages = append(r.receivedMessages, ReceivedMessage{
					Type:    message.Type,
					Message: body,
				})
			}
		}
		r.lock.Unlock()
	}
}

func (r *RabbitMQConsumer) Stop() {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.channel != nil {
		_ = r.channel.Close()
	}
	r.channel = nil
}

func (r *RabbitMQConsumer) Unload() ([]ReceivedMessage, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.err != nil {
		return nil, r.err
	}

	receivedMessages := r.receivedMessages
	r.receivedMessages = nil
	return receivedMessages, nil
}
