package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/metrics"
)

type RabbitClient struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
}

// NewRabbitClient connects and declares a durable direct exchange with one
// bound queue.
func NewRabbitClient(url, exchange, queue string) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp.Dial -> %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("conn.Channel -> %w", err)
	}

	client := &RabbitClient{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		queue:    queue,
	}

	if err = ch.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("ch.ExchangeDeclare -> %w", err)
	}
	if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("ch.QueueDeclare -> %w", err)
	}
	if err = ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("ch.QueueBind -> %w", err)
	}

	zap.L().Info("rabbitmq initialised", zap.String("exchange", exchange), zap.String("queue", queue))

	return client, nil
}

func (c *RabbitClient) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// RabbitDispatcher publishes jobs to RabbitMQ; a Consumer executes them.
type RabbitDispatcher struct {
	client  *RabbitClient
	timeout time.Duration
}

func NewRabbitDispatcher(client *RabbitClient, timeout time.Duration) *RabbitDispatcher {
	return &RabbitDispatcher{
		client:  client,
		timeout: timeout,
	}
}

func (d *RabbitDispatcher) Dispatch(_ context.Context, job Job) {
	body, err := json.Marshal(job)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err = d.client.channel.PublishWithContext(ctx, d.client.exchange, d.client.queue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         string(job.Kind),
			Body:         body,
		})
		cancel()
	}
	if err != nil {
		metrics.SideEffectFailures.WithLabelValues(string(job.Kind)).Inc()
		zap.L().Error("failed to publish side effect", zap.String("kind", string(job.Kind)), zap.Error(err))
	}
}

type Consumer struct {
	client  *RabbitClient
	exec    Executor
	timeout time.Duration
	done    chan struct{}
}

func NewConsumer(client *RabbitClient, exec Executor, timeout time.Duration) *Consumer {
	return &Consumer{
		client:  client,
		exec:    exec,
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// Start consumes until ctx is cancelled or the channel closes. Executed jobs are
// acked even when they fail, since side effects are not retried.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.client.channel.Consume(c.client.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("channel.Consume -> %w", err)
	}

	go func() {
		defer close(c.done)

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				c.handle(d)
			}
		}
	}()

	zap.L().Info("consuming side effects", zap.String("queue", c.client.queue))

	return nil
}

func (c *Consumer) handle(d amqp.Delivery) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		zap.L().Error("dropping malformed side effect", zap.ByteString("body", d.Body), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	run(ctx, c.exec, job)
	_ = d.Ack(false)
}

// Wait blocks until the consumer loop has exited.
func (c *Consumer) Wait() {
	<-c.done
}
