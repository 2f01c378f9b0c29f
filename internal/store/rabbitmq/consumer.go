package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/1kken/SideKickCX/internal/observability"
	"github.com/1kken/SideKickCX/internal/support"
)

var errBadMessage = errors.New("bad audit message")

// Consumer persists queued audit entries with a fixed pool of workers.
type Consumer struct {
	Sink        support.AuditLog
	Retry       *Publisher
	Concurrency int
	MaxAttempts int
	RetryDelay  time.Duration
	Metrics     *observability.Metrics
}

// Run dispatches deliveries to the pool until ctx is done or msgs closes,
// then waits for in-flight messages.
func (c *Consumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	n := c.Concurrency
	if n <= 0 {
		n = 2
	}
	jobs := make(chan amqp.Delivery, n*2)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				c.process(ctx, workerID, d)
			}
		}(i)
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit consumer shutting down")
			return
		case d, ok := <-msgs:
			if !ok {
				slog.Warn("delivery channel closed")
				return
			}
			jobs <- d
		}
	}
}

func (c *Consumer) process(ctx context.Context, workerID int, d amqp.Delivery) {
	start := time.Now()
	err := c.handle(ctx, d.Body)
	switch {
	case err == nil:
		if aerr := d.Ack(false); aerr != nil {
			slog.Warn("ack failed", "worker", workerID, "error", aerr)
		}
		c.Metrics.ObserveConsumed("stored")

	case errors.Is(err, errBadMessage):
		slog.Warn("dropping bad audit message", "worker", workerID, "error", err)
		_ = d.Nack(false, false)
		c.Metrics.ObserveConsumed("dead_lettered")

	default:
		attempts := attemptsOf(d.Headers) + 1
		if c.Retry != nil && attempts < c.maxAttempts() {
			if perr := c.Retry.retry(ctx, d.Body, attempts, c.retryDelay()); perr == nil {
				_ = d.Ack(false)
				c.Metrics.ObserveConsumed("retried")
				slog.Warn("audit append failed, retrying", "worker", workerID, "attempt", attempts, "cost", time.Since(start), "error", err)
				return
			}
		}
		slog.Error("audit append failed", "worker", workerID, "attempt", attempts, "cost", time.Since(start), "error", err)
		_ = d.Nack(false, false)
		c.Metrics.ObserveConsumed("dead_lettered")
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var e support.Entry
	if err := json.Unmarshal(body, &e); err != nil {
		return errors.Join(errBadMessage, err)
	}
	if e.UserID == "" || e.Question == "" {
		return errBadMessage
	}
	switch e.HandledBy {
	case support.HandledByChatbot, support.HandledByAgent:
	default:
		return errBadMessage
	}
	return c.Sink.Append(ctx, e)
}

func (c *Consumer) maxAttempts() int {
	if c.MaxAttempts <= 0 {
		return 3
	}
	return c.MaxAttempts
}

func (c *Consumer) retryDelay() time.Duration {
	if c.RetryDelay <= 0 {
		return 5 * time.Second
	}
	return c.RetryDelay
}

func attemptsOf(h amqp.Table) int {
	switch v := h[attemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
