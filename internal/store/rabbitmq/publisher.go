package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/1kken/SideKickCX/internal/support"
)

const attemptsHeader = "x-attempts"

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher queues audit entries for the worker. It satisfies support.AuditLog.
type Publisher struct {
	conn  *amqp.Connection
	ch    publishChannel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, ch, err := Dial(url, queue)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// NewChannelPublisher publishes on an existing channel. Close leaves the
// channel and its connection open.
func NewChannelPublisher(ch *amqp.Channel, queue string) *Publisher {
	return &Publisher{ch: ch, queue: queue}
}

func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if c, ok := p.ch.(*amqp.Channel); ok && c != nil {
		_ = c.Close()
	}
	return p.conn.Close()
}

func (p *Publisher) Append(ctx context.Context, e support.Entry) error {
	if e.UserID == "" {
		return errors.New("audit entry without user id")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.queue, body, 0, "")
}

// retry parks body on the retry queue; it comes back to the main queue after delay.
func (p *Publisher) retry(ctx context.Context, body []byte, attempts int, delay time.Duration) error {
	return p.publish(ctx, retryQueue(p.queue), body, attempts, strconv.FormatInt(delay.Milliseconds(), 10))
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte, attempts int, expiration string) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",    // default exchange
		queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
			Expiration:   expiration,
			Headers:      amqp.Table{attemptsHeader: int32(attempts)},
		},
	)
}
