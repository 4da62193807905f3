package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// CommitEvent 数据集提交事件
type CommitEvent struct {
	SessionID    string    `json:"sessionId"`
	Target       string    `json:"target"`
	FileName     string    `json:"fileName"`
	RecordCount  int       `json:"recordCount"`
	DroppedCount int       `json:"droppedCount"`
	SkippedCount int       `json:"skippedCount"`
	Warnings     []string  `json:"warnings"`
	CommittedAt  time.Time `json:"committedAt"`
}

// Notifier 提交通知
type Notifier interface {
	Publish(ctx context.Context, e CommitEvent) error
	Close() error
}

// Nop 不发送任何通知
type Nop struct{}

func (Nop) Publish(context.Context, CommitEvent) error { return nil }
func (Nop) Close() error                               { return nil }

// publisher amqp.Channel 的发布子集
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier 通过 RabbitMQ 默认 exchange 向持久队列发送 JSON 事件
type AMQPNotifier struct {
	queue  string
	logger zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   publisher
}

// DialAMQP 连接 RabbitMQ 并声明持久队列
func DialAMQP(url, queue string, logger zerolog.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	logger.Info().Str("queue", queue).Msg("commit notifier connected")
	return &AMQPNotifier{queue: queue, logger: logger, conn: conn, ch: ch}, nil
}

func newAMQPNotifier(queue string, ch publisher, logger zerolog.Logger) *AMQPNotifier {
	return &AMQPNotifier{queue: queue, logger: logger, ch: ch}
}

// Publish 发送提交事件（持久投递）
func (n *AMQPNotifier) Publish(ctx context.Context, e CommitEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode commit event: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.ch.PublishWithContext(ctx,
		"",      // exchange
		n.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    e.SessionID,
			Timestamp:    e.CommittedAt,
			Type:         "dataset.committed",
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish commit event: %w", err)
	}
	n.logger.Debug().Str("queue", n.queue).Str("target", e.Target).Msg("commit event published")
	return nil
}

// Close 关闭通道与连接
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if c, ok := n.ch.(*amqp.Channel); ok {
		_ = c.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
